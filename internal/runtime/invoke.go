package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// intrinsicFunc is a native method body: it receives the already-popped
// argument values (receiver excluded) and the interpreter, and may push a
// return value itself rather than going through the normal frame-return
// path, since it never has a callee frame to return from.
type intrinsicFunc func(vm *Interpreter, args []javatype.Value) error

// execInvoke resolves the target method by name+descriptor, pops its
// arguments (and receiver, for virtual/special dispatch) off the caller's
// operand stack, and either runs the single built-in intrinsic directly or
// pushes a fresh callee frame for it. Interface dispatch (InvokeInterface)
// and call-site dispatch (InvokeDynamic) are handled separately in
// execute's switch and never reach this function.
func (vm *Interpreter) execInvoke(frame *Frame, inst bytecode.Instruction, hasReceiver bool) (bool, error) {
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return false, err
	}
	owner, name, descriptor, err := classfile.ResolveMethodRef(pool, uint16(inst.CPIndex))
	if err != nil {
		return false, err
	}
	params, _, err := parseDescriptor(descriptor)
	if err != nil {
		return false, err
	}

	args := make([]javatype.Value, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		v, err := frame.Pop()
		if err != nil {
			return false, err
		}
		args[i] = v
	}

	var receiver javatype.Value
	if hasReceiver {
		v, err := frame.Pop()
		if err != nil {
			return false, err
		}
		receiver = v
	}

	key := owner + "." + name + ":" + descriptor
	if fn, ok := vm.intrinsics[key]; ok {
		if err := fn(vm, args); err != nil {
			return false, err
		}
		frame.PC += inst.Len
		return true, nil
	}

	cls, err := vm.Classes.Get(owner)
	if err != nil {
		return false, err
	}
	if err := vm.ensureInitialized(cls); err != nil {
		return false, err
	}
	method, ok := cls.FindMethod(name, descriptor)
	if !ok {
		return false, diagnostics.New(diagnostics.ResolutionError, "no method %s.%s%s", owner, name, descriptor)
	}

	callee := NewFrame(method, owner)
	localIdx := 0
	if hasReceiver {
		callee.Locals[0] = receiver
		localIdx = 1
	}
	for _, a := range args {
		callee.Locals[localIdx] = a
		localIdx++
	}

	frame.PC += inst.Len
	if err := vm.pushFrame(callee); err != nil {
		return false, err
	}
	return true, nil
}
