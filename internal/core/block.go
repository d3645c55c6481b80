package core

import (
	"io"

	"github.com/go-pak/unrealpak/internal/utils"
)

// Block is a half-open byte range [Start, End) expressed as absolute
// offsets into the archive file.
type Block struct {
	Start uint64
	End   uint64
}

// Size returns the number of bytes the block covers.
func (b Block) Size() uint64 {
	return b.End - b.Start
}

// ReadBlocks reads a u32 count followed by that many (u64 start, u64 end)
// pairs, the data-record header's block-table framing.
func ReadBlocks(r io.Reader) ([]Block, error) {
	count, err := utils.ReadU32(r)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, count)
	for i := range blocks {
		start, err := utils.ReadU64(r)
		if err != nil {
			return nil, err
		}
		end, err := utils.ReadU64(r)
		if err != nil {
			return nil, err
		}
		blocks[i] = Block{Start: start, End: end}
	}
	return blocks, nil
}

// WriteBlocks writes a u32 count followed by each block's (start, end)
// pair, mirroring ReadBlocks.
func WriteBlocks(w io.Writer, blocks []Block) error {
	if err := utils.WriteU32(w, uint32(len(blocks))); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := utils.WriteU64(w, b.Start); err != nil {
			return err
		}
		if err := utils.WriteU64(w, b.End); err != nil {
			return err
		}
	}
	return nil
}
