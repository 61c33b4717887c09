package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/fuzzkit/internal/ir"
)

// LoadSystem compiles a system definition from a .cue file or from a
// directory holding one CUE package.
func LoadSystem(path string) (*ir.SystemSpec, error) {
	v, err := LoadValue(path)
	if err != nil {
		return nil, err
	}
	return CompileSystem(v)
}

// LoadValue builds the CUE value at path without compiling it.
func LoadValue(path string) (cue.Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("stat %s: %w", path, err)
	}

	ctx := cuecontext.New()

	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("read %s: %w", path, err)
		}
		v := ctx.CompileBytes(src, cue.Filename(path))
		if err := v.Err(); err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		return v, nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("scan %s: %w", path, err)
	}
	if len(files) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE files found in %s", path)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}
