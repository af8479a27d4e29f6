//go:build !linux

package executor

import "fmt"

func pinCurrentThread(cpu int) error {
	return fmt.Errorf("cpu pinning is not supported on this platform (cpu %d)", cpu)
}
