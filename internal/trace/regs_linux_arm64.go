package trace

import "golang.org/x/sys/unix"

// https://man7.org/linux/man-pages/man2/syscall.2.html
//   Arch/ABI    arg1  arg2  arg3  arg4  arg5  arg6  arg7   Notes
//   ────────────────────────────────────────────────────────────
//   arm64       x0    x1    x2    x3    x4    x5    -
//
// The call number is in x8. arm64 has no PTRACE_GETREGS, so the general
// purpose registers come from the NT_PRSTATUS register set.

// GetRegs reads the call number and first three arguments of a stopped target.
func (*Ptracer) GetRegs(pid int) (Registers, error) {
	var regs unix.PtraceRegsArm64
	if err := unix.PtraceGetRegSetArm64(pid, unix.NT_PRSTATUS, &regs); err != nil {
		return Registers{}, err
	}
	return Registers{
		Syscall: regs.Regs[8],
		Args:    [3]uint64{regs.Regs[0], regs.Regs[1], regs.Regs[2]},
	}, nil
}
