package cli

import (
	"fmt"
	"runtime"
)

func HandleVersion() {
	fmt.Printf("safecalc %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
