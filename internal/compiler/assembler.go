package compiler

import (
	"fmt"
	"os"
	"os/exec"
)

// Assembler is the external collaborator that turns emitted assembly
// text into an executable. The compiler's own contract ends at the text;
// implementations shell out to a system toolchain.
type Assembler interface {
	// AssembleAndLink produces an executable at outputPath from the
	// assembly text. On failure the error carries the toolchain's own
	// diagnostic output.
	AssembleAndLink(asm, outputPath string) error
}

// GCC assembles and links through the system gcc driver, which handles
// both steps and the C runtime startup files in one invocation.
type GCC struct {
	// Driver overrides the command name; empty means "gcc".
	Driver string
}

func (g *GCC) AssembleAndLink(asm, outputPath string) error {
	tmp, err := os.CreateTemp("", "cc64-*.s")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(asm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	driver := g.Driver
	if driver == "" {
		driver = "gcc"
	}
	out, err := exec.Command(driver, "-no-pie", tmp.Name(), "-o", outputPath).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", driver, err, out)
	}
	return nil
}
