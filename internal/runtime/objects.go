package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// execNew allocates a zero-initialized instance of the class named by
// inst.CPIndex and pushes a reference to it. Instance fields are not
// pre-declared on the Object; they appear when PutField first writes them,
// and until then GetField reads a missing field as the Java default value
// of its descriptor type.
func (vm *Interpreter) execNew(frame *Frame, inst bytecode.Instruction) error {
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return err
	}
	name, err := classfile.ResolveClassName(pool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	if cls, err := vm.Classes.Get(name); err == nil {
		if err := vm.ensureInitialized(cls); err != nil {
			return err
		}
	}
	idx := vm.Heap.Alloc(&Object{ClassName: name, Fields: make(map[string]javatype.Value)})
	frame.Push(javatype.Reference(idx))
	return nil
}

// execCheckCast verifies, without popping, that the top-of-stack reference
// is null or names the class inst.CPIndex resolves to. Matching is by
// declared class name only -- no superclass/interface walk -- the same
// best-effort choice this core makes for exception-handler matching.
func (vm *Interpreter) execCheckCast(frame *Frame, inst bytecode.Instruction) error {
	ref, err := frame.Peek(0)
	if err != nil {
		return err
	}
	if ref.Type == javatype.TypeNull {
		return nil
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return err
	}
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return err
	}
	want, err := classfile.ResolveClassName(pool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	obj, err := vm.Heap.GetObject(ref.Ref)
	if err != nil {
		return err
	}
	if obj.ClassName != want {
		return diagnostics.New(diagnostics.TypeError, "cannot cast %s to %s", obj.ClassName, want)
	}
	return nil
}

func (vm *Interpreter) execInstanceOf(frame *Frame, inst bytecode.Instruction) error {
	ref, err := frame.Pop()
	if err != nil {
		return err
	}
	if ref.Type == javatype.TypeNull {
		frame.Push(javatype.Int(0))
		return nil
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return err
	}
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return err
	}
	want, err := classfile.ResolveClassName(pool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	obj, err := vm.Heap.GetObject(ref.Ref)
	if err != nil {
		return err
	}
	if obj.ClassName == want {
		frame.Push(javatype.Int(1))
	} else {
		frame.Push(javatype.Int(0))
	}
	return nil
}

// execAThrow pops the exception reference and unwinds the frame stack
// looking for a handler whose range covers the throwing frame's current pc
// and whose catch type names the same class as the thrown object (or is the
// catch-all entry, CatchType == 0). The first matching frame found going
// outward from the top wins; its operand stack is cleared, the exception
// reference is pushed back, and execution resumes at the handler pc. An
// exception that unwinds past the bottom frame is reported as unimplemented
// rather than silently dropped, since this core has no default "uncaught
// exception handler" behavior to fall back on.
func (vm *Interpreter) execAThrow(frame *Frame) (bool, error) {
	ref, err := frame.Pop()
	if err != nil {
		return false, err
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return false, err
	}
	obj, err := vm.Heap.GetObject(ref.Ref)
	if err != nil {
		return false, err
	}

	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		pool, err := vm.constantPoolOf(f)
		if err != nil {
			continue
		}
		for _, h := range f.Method.Handlers {
			if f.PC < int(h.StartPC) || f.PC >= int(h.EndPC) {
				continue
			}
			if h.CatchType != 0 {
				catchName, err := classfile.ResolveClassName(pool, h.CatchType)
				if err != nil || catchName != obj.ClassName {
					continue
				}
			}
			vm.frames = vm.frames[:i+1]
			f.OperandStack = f.OperandStack[:0]
			f.Push(ref)
			f.PC = int(h.HandlerPC)
			return true, nil
		}
	}
	return false, diagnostics.New(diagnostics.Unimplemented, "uncaught exception of type %s", obj.ClassName)
}
