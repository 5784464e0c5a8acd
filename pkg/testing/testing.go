package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// cd to the project root so relative paths (logs/, sqlite files) resolve
	// the same way for every package under test. Use it as a blank import:
	//
	//   import (
	//     _ "liyu1981.xyz/aquapure-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
}
