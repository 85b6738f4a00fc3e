package trace

import "golang.org/x/sys/unix"

// https://man7.org/linux/man-pages/man2/syscall.2.html
//   Arch/ABI    arg1  arg2  arg3  arg4  arg5  arg6  arg7   Notes
//   ────────────────────────────────────────────────────────────
//   x86-64      rdi   rsi   rdx   r10   r8    r9    -
//
// orig_rax keeps the call number at both the entry and the exit stop.

// GetRegs reads the call number and first three arguments of a stopped target.
func (*Ptracer) GetRegs(pid int) (Registers, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return Registers{}, err
	}
	return Registers{
		Syscall: regs.Orig_rax,
		Args:    [3]uint64{regs.Rdi, regs.Rsi, regs.Rdx},
	}, nil
}
