package runtime

import (
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// defaultIntrinsics seeds the one native method this core recognizes:
// java.io.PrintStream.println(int). Everything else that looks like a JDK
// call (System.out itself, String methods, ...) is either tolerated as a
// null reference (GetStatic) or left to fail resolution -- adding more
// intrinsics is a matter of adding more table entries, not touching the
// dispatch path in invoke.go.
func defaultIntrinsics() map[string]intrinsicFunc {
	return map[string]intrinsicFunc{
		"java/io/PrintStream.println:(I)V": printlnInt,
	}
}

func printlnInt(vm *Interpreter, args []javatype.Value) error {
	if len(args) != 1 {
		return diagnostics.New(diagnostics.TypeError, "println(I)V expects 1 argument, got %d", len(args))
	}
	if err := checkTag(args[0], javatype.TypeInt); err != nil {
		return err
	}
	vm.Stdout.WriteString(itoa(args[0].I))
	vm.Stdout.WriteByte('\n')
	return nil
}
