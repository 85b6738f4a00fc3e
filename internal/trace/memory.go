package trace

// WordSize is the number of bytes returned by one PTRACE_PEEKDATA.
const WordSize = 8

// MaxTransfer is the most bytes a single write(2) can move (MAX_RW_COUNT).
const MaxTransfer = 0x7ffff000

// preallocLimit bounds the up-front allocation for a read; larger
// buffers grow as words arrive.
const preallocLimit = 64 << 10

// Word is one word of target memory, in target byte order.
type Word [WordSize]byte

// WordReader reads a single word of another process's memory.
type WordReader interface {
	PeekWord(pid int, addr uintptr) (Word, error)
}

// MemoryReader reconstructs byte ranges of a stopped target's memory from
// word reads.
//
// By default a word that cannot be read is left out of the result, which
// makes the returned slice shorter than requested. OnDrop, if set, is
// called for every such word. With Strict set, the first failed word
// aborts the read with ErrMemoryRead instead.
type MemoryReader struct {
	Words  WordReader
	Pid    int
	Strict bool
	OnDrop func(addr uintptr, err error)
}

// Read returns length bytes starting at addr.
func (m *MemoryReader) Read(addr uintptr, length uint64) ([]byte, error) {
	if length > MaxTransfer {
		length = MaxTransfer
	}
	words := (length + WordSize - 1) / WordSize

	buf := make([]byte, 0, min(words*WordSize, preallocLimit))
	for i := uint64(0); i < words; i++ {
		wordAddr := addr + uintptr(i*WordSize)
		word, err := m.Words.PeekWord(m.Pid, wordAddr)
		if err != nil {
			if m.Strict {
				return nil, newError(ErrMemoryRead, "ptrace peekdata", m.Pid, err)
			}
			if m.OnDrop != nil {
				m.OnDrop(wordAddr, err)
			}
			continue
		}
		buf = append(buf, word[:]...)
	}

	if uint64(len(buf)) > length {
		buf = buf[:length]
	}
	return buf, nil
}
