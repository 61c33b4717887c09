package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/fuzzkit/internal/compiler"
	"github.com/roach88/fuzzkit/internal/ir"
)

// Error code constants, unified across all CLI commands.
// Static validation uses the compiler's E1xx codes and run failures use the
// engine's error codes.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load or syntax error
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeCompile      = "E006" // Definition does not compile to a system
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeStore        = "E008" // Run log error
	ErrCodeInvalidInput = "E009" // Malformed --input flag
)

// LoadError represents an error that occurred while loading a system.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Location returns "file:line:col" or "" when no position is known.
func (e *LoadError) Location() string {
	if !e.Pos.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
}

// LoadResult is a compiled system and its content hash.
type LoadResult struct {
	Spec      *ir.SystemSpec
	Hash      string
	FileCount int // Number of CUE files read
}

// LoadSystem compiles the system at path (a .cue file or a directory).
func LoadSystem(path string) (*LoadResult, *LoadError) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}

	fileCount := 1
	if info.IsDir() {
		files, err := compiler.FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
		fileCount = len(files)
	}

	spec, err := compiler.LoadSystem(path)
	if err != nil {
		return nil, convertCompileError(err)
	}

	hash, err := ir.SystemHash(*spec)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCompile, Message: fmt.Sprintf("hashing system: %v", err)}
	}
	return &LoadResult{Spec: spec, Hash: hash, FileCount: fileCount}, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeCompile
		if compileErr.Field == "cue" {
			code = ErrCodeLoadFailed
		}
		msg := compileErr.Message
		if compileErr.Field != "cue" {
			msg = compileErr.Field + ": " + msg
		}
		return &LoadError{Code: code, Message: msg, Pos: compileErr.Pos}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}
