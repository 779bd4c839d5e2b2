package checkpointer

import "fmt"

// FilenameEnumerator returns a filename function which numbers the files
// it names. The first call returns prefix followed by start+1 and
// extension, and every later call increments the number. Numbers are
// never reused, so checkpoints made through it never overwrite each
// other. The extension includes its dot.
func FilenameEnumerator(start int, prefix, extension string) func() string {
	n := start
	return func() string {
		n++
		return fmt.Sprintf("%v%d%v", prefix, n, extension)
	}
}
