package runtime

import (
	"strconv"
	"strings"

	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// maxFrameDepth guards against runaway recursion, since this core has no
// stack-overflow exception to raise instead.
const maxFrameDepth = 2048

// Interpreter drives execution: component H. It owns the class area, the
// heap, the frame stack, and the in-memory stdout buffer the single
// intrinsic writes to.
type Interpreter struct {
	Classes *ClassArea
	Heap    *Heap
	Stdout  strings.Builder

	frames     []*Frame
	intrinsics map[string]intrinsicFunc
	literals   map[int]string // heap index -> backing Go string, for String literal objects
}

// NewInterpreter builds an Interpreter backed by loader for classes not
// already registered in memory.
func NewInterpreter(loader Loader) *Interpreter {
	vm := &Interpreter{
		Classes:  NewClassArea(loader),
		Heap:     NewHeap(),
		literals: make(map[int]string),
	}
	vm.intrinsics = defaultIntrinsics()
	return vm
}

// RegisterClass installs an externally-produced *Class directly, without
// going through classfile parsing at all.
func (vm *Interpreter) RegisterClass(c *Class) {
	vm.Classes.RegisterClass(c)
}

func (vm *Interpreter) currentFrame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

func (vm *Interpreter) pushFrame(f *Frame) error {
	if len(vm.frames) >= maxFrameDepth {
		return diagnostics.New(diagnostics.Unimplemented, "frame depth exceeded %d (probable runaway recursion)", maxFrameDepth)
	}
	vm.frames = append(vm.frames, f)
	return nil
}

func (vm *Interpreter) popFrame() *Frame {
	n := len(vm.frames)
	f := vm.frames[n-1]
	vm.frames = vm.frames[:n-1]
	return f
}

// Run locates entryClass's main([Ljava/lang/String;)V, pushes the initial
// frame, and steps until the frame stack empties.
func (vm *Interpreter) Run(entryClass string) error {
	cls, err := vm.Classes.Get(entryClass)
	if err != nil {
		return err
	}
	if err := vm.ensureInitialized(cls); err != nil {
		return err
	}

	main, ok := cls.FindMethod("main", "([Ljava/lang/String;)V")
	if !ok {
		return diagnostics.New(diagnostics.ResolutionError, "class %s has no main([Ljava/lang/String;)V", entryClass)
	}

	frame := NewFrame(main, cls.Name)
	// args: a single local holding a null array reference, since this core
	// never constructs an actual String[] for the command-line arguments.
	if len(frame.Locals) > 0 {
		frame.Locals[0] = javatype.Null()
	}
	if err := vm.pushFrame(frame); err != nil {
		return err
	}

	for len(vm.frames) > 0 {
		if err := vm.Step(); err != nil {
			return diagnostics.Wrap(err, vm.categoryOrOpaque(err), "%s", vm.stackTrace())
		}
	}
	return nil
}

func (vm *Interpreter) categoryOrOpaque(err error) diagnostics.Category {
	if c, ok := diagnostics.CategoryOf(err); ok {
		return c
	}
	return diagnostics.Unimplemented
}

// stackTrace renders the current frame stack top-to-bottom.
func (vm *Interpreter) stackTrace() string {
	locs := make([]diagnostics.FrameLocation, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		locs = append(locs, diagnostics.FrameLocation{
			OwningClass: f.OwningClass,
			Method:      f.Method.Name + f.Method.Descriptor,
			PC:          f.PC,
		})
	}
	return diagnostics.StackTrace(locs)
}

// ensureInitialized runs <clinit>()V for cls (and, transitively, its
// superclass) exactly once. The Initialized flag is set before the
// initializer runs, guarding against self-referential re-entry if a
// class's own <clinit> ends up referencing the class itself; ordering
// between two otherwise-unrelated classes' initializers is unspecified.
func (vm *Interpreter) ensureInitialized(cls *Class) error {
	if cls.Initialized {
		return nil
	}
	cls.Initialized = true

	if cls.SuperName != "" {
		if super, err := vm.Classes.Get(cls.SuperName); err == nil {
			if err := vm.ensureInitialized(super); err != nil {
				return err
			}
		}
		// A missing superclass (no JDK standard library loaded) is
		// tolerated here the same way GetStatic tolerates a missing
		// java/lang/System: this core has no stdlib classes to load.
	}

	clinit, ok := cls.FindMethod("<clinit>", "()V")
	if !ok {
		return nil
	}
	return vm.runToCompletion(NewFrame(clinit, cls.Name))
}

// runToCompletion pushes f and steps until it (and anything it calls) has
// returned, used for <clinit> frames that run independently of the caller's
// operand stack.
func (vm *Interpreter) runToCompletion(f *Frame) error {
	depth := len(vm.frames)
	if err := vm.pushFrame(f); err != nil {
		return err
	}
	for len(vm.frames) > depth {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one instruction in the current frame and returns:
// pc advances by 1 unless the instruction reassigned it itself (a branch,
// which may target its own index or an earlier one, an invoke, a return, or
// a ret).
func (vm *Interpreter) Step() error {
	frame := vm.currentFrame()
	inst, err := frame.CurrentInstruction()
	if err != nil {
		return err
	}

	advanced, err := vm.execute(frame, inst)
	if err != nil {
		return err
	}
	if !advanced {
		frame.PC++
	}
	return nil
}

// execute dispatches on inst.Op, mutating frame/heap/class-area/frame-stack
// as needed. It returns true if it already reassigned frame.PC itself
// (branch, invoke, return, ret) so Step should not also advance it.
func (vm *Interpreter) execute(frame *Frame, inst bytecode.Instruction) (pcReassigned bool, err error) {
	switch inst.Op {
	case bytecode.OpNop:
		return false, nil
	case bytecode.OpAConstNull:
		frame.Push(javatype.Null())
		return false, nil
	case bytecode.OpConst:
		frame.Push(inst.Value)
		return false, nil
	case bytecode.OpLoadConst:
		return false, vm.execLoadConst(frame, inst)

	case bytecode.OpLoad:
		v, err := frame.GetLocal(inst.LocalIndex)
		if err != nil {
			return false, err
		}
		frame.Push(v)
		return false, nil
	case bytecode.OpStore:
		v, err := frame.Pop()
		if err != nil {
			return false, err
		}
		return false, frame.SetLocal(inst.LocalIndex, v)
	case bytecode.OpIInc:
		v, err := frame.GetLocal(inst.LocalIndex)
		if err != nil {
			return false, err
		}
		if v.Type != javatype.TypeInt {
			return false, diagnostics.New(diagnostics.TypeError, "iinc on non-int local")
		}
		return false, frame.SetLocal(inst.LocalIndex, javatype.Int(v.I+inst.IncBy))

	case bytecode.OpALoad:
		return false, vm.execALoad(frame, inst)
	case bytecode.OpAStore:
		return false, vm.execAStore(frame, inst)

	case bytecode.OpPop:
		_, err := frame.Pop()
		return false, err
	case bytecode.OpPop2:
		return false, vm.execPop2(frame)
	case bytecode.OpDup, bytecode.OpDupX1, bytecode.OpDupX2,
		bytecode.OpDup2, bytecode.OpDup2X1, bytecode.OpDup2X2, bytecode.OpSwap:
		return false, vm.execStackShuffle(frame, inst.Op)

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpRem:
		return false, vm.execBinaryArith(frame, inst)
	case bytecode.OpNeg:
		return false, vm.execNeg(frame, inst)
	case bytecode.OpShl, bytecode.OpShr, bytecode.OpUShr:
		return false, vm.execShift(frame, inst)
	case bytecode.OpAnd, bytecode.OpOr, bytecode.OpXor:
		return false, vm.execBitwise(frame, inst)
	case bytecode.OpConvert:
		return false, vm.execConvert(frame, inst)
	case bytecode.OpLCmp, bytecode.OpFCmpL, bytecode.OpFCmpG, bytecode.OpDCmpL, bytecode.OpDCmpG:
		return false, vm.execCompare(frame, inst)

	case bytecode.OpIf:
		return vm.execIf(frame, inst)
	case bytecode.OpIfICmp:
		return vm.execIfICmp(frame, inst)
	case bytecode.OpIfNull:
		return vm.execIfNull(frame, inst, true)
	case bytecode.OpIfNonNull:
		return vm.execIfNull(frame, inst, false)
	case bytecode.OpGoto:
		frame.PC += inst.Offset
		return true, nil
	case bytecode.OpJsr:
		return vm.execJsr(frame, inst)
	case bytecode.OpRet:
		return vm.execRet(frame, inst)

	case bytecode.OpReturn:
		return true, vm.execReturn(frame, inst)

	case bytecode.OpGetStatic:
		return false, vm.execGetStatic(frame, inst)
	case bytecode.OpPutStatic:
		return false, vm.execPutStatic(frame, inst)
	case bytecode.OpGetField:
		return false, vm.execGetField(frame, inst)
	case bytecode.OpPutField:
		return false, vm.execPutField(frame, inst)

	case bytecode.OpInvokeVirtual, bytecode.OpInvokeSpecial:
		return vm.execInvoke(frame, inst, true)
	case bytecode.OpInvokeStatic:
		return vm.execInvoke(frame, inst, false)
	case bytecode.OpInvokeInterface:
		return false, diagnostics.New(diagnostics.Unimplemented, "invokeinterface")
	case bytecode.OpInvokeDynamic:
		return false, diagnostics.New(diagnostics.Unimplemented, "invokedynamic")

	case bytecode.OpNew:
		return false, vm.execNew(frame, inst)
	case bytecode.OpNewArray:
		return false, vm.execNewArray(frame, inst)
	case bytecode.OpANewArray:
		return false, vm.execANewArray(frame, inst)
	case bytecode.OpArrayLength:
		return false, vm.execArrayLength(frame)
	case bytecode.OpMultiANewArray:
		return false, vm.execMultiANewArray(frame, inst)

	case bytecode.OpAThrow:
		return vm.execAThrow(frame)
	case bytecode.OpCheckCast:
		return false, vm.execCheckCast(frame, inst)
	case bytecode.OpInstanceOf:
		return false, vm.execInstanceOf(frame, inst)
	case bytecode.OpMonitorEnter, bytecode.OpMonitorExit:
		_, err := frame.Pop()
		return false, err

	case bytecode.OpTableSwitch, bytecode.OpLookupSwitch:
		return false, diagnostics.New(diagnostics.Unimplemented, "switch")
	case bytecode.OpWide:
		return false, diagnostics.New(diagnostics.Unimplemented, "wide")
	case bytecode.OpBreakpoint:
		return false, diagnostics.New(diagnostics.Unimplemented, "breakpoint")

	default:
		return false, diagnostics.New(diagnostics.Unimplemented, "opcode %d", inst.Op)
	}
}

func (vm *Interpreter) execLoadConst(frame *Frame, inst bytecode.Instruction) error {
	cls, err := vm.Classes.Get(frame.OwningClass)
	if err != nil {
		return err
	}
	loadable, err := classfile.ResolveLoadable(cls.ConstantPool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	switch loadable.Kind {
	case "int":
		frame.Push(javatype.Int(loadable.Int))
	case "float":
		frame.Push(javatype.Float(loadable.Float))
	case "long":
		frame.Push(javatype.Long(loadable.Long))
	case "double":
		frame.Push(javatype.Double(loadable.Double))
	case "string":
		idx := vm.Heap.Alloc(&Object{ClassName: "java/lang/String", Fields: map[string]javatype.Value{}})
		vm.literals[idx] = loadable.StrOrName
		frame.Push(javatype.Reference(idx))
	case "class":
		idx := vm.Heap.Alloc(&Object{ClassName: "java/lang/Class", Fields: map[string]javatype.Value{}})
		vm.literals[idx] = loadable.StrOrName
		frame.Push(javatype.Reference(idx))
	default:
		return diagnostics.New(diagnostics.Unimplemented, "loading constant kind %s", loadable.Kind)
	}
	return nil
}

func itoa(v int32) string { return strconv.Itoa(int(v)) }
