// Package checkpointer implements functionality for saving agents to
// disk after training
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects
type Checkpointer interface {
	Checkpoint() error
}

// File checkpoints an object by gob encoding it into a file. A new
// filename is requested for each checkpoint.
type File struct {
	object Serializable

	// filename returns the filename of the next checkpoint. Use Fixed to
	// overwrite a single file and FilenameEnumerator to keep numbered
	// files such as alice_attempt1.bin, alice_attempt2.bin, ...
	filename func() string
	last     string
}

// NewFile returns a Checkpointer that saves object to the files named
// by filename
func NewFile(object Serializable, filename func() string) *File {
	return &File{object: object, filename: filename}
}

// Fixed returns a filename function which always returns filename
func Fixed(filename string) func() string {
	return func() string { return filename }
}

// Checkpoint saves the object, creating the parent directory of the
// file if needed
func (f *File) Checkpoint() error {
	filename := f.filename()
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("checkpoint: could not create directory: %v", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("checkpoint: could not create file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(f.object); err != nil {
		return fmt.Errorf("checkpoint: could not encode object: %v", err)
	}

	f.last = filename
	return nil
}

// Last returns the filename of the most recent checkpoint, or the
// empty string if no checkpoint has been saved
func (f *File) Last() string {
	return f.last
}

// Restore decodes the checkpoint saved in filename into object
func Restore(filename string, object Serializable) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("restore: could not open file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(object); err != nil {
		return fmt.Errorf("restore: could not decode object: %v", err)
	}
	return nil
}
