package runtime

import "github.com/kr/pretty"

// DumpClasses renders every currently-loaded class, in registration order,
// for troubleshooting output -- used by cmd/gojvm's -debug flag when a
// program fails in a way that's easier to diagnose by inspecting loaded
// class/method state than by reading a stack trace alone.
func (vm *Interpreter) DumpClasses() string {
	return pretty.Sprint(vm.Classes.All())
}
