package prover

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/oraclevm/oracle-vm/internal/oraclevm"
)

// EncodeInput builds the canonical executor input for a settlement:
//
//	id[32] | u64be price | u64be time | u32be len | priceData | u32be len | marketState
//
// Both settlement kinds share the layout; the kind is not encoded.
func EncodeInput(s oraclevm.Settlement, priceData, marketState []byte) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil settlement")
	}
	if uint64(len(priceData)) > math.MaxUint32 {
		return nil, fmt.Errorf("price data too large: %d bytes", len(priceData))
	}
	if uint64(len(marketState)) > math.MaxUint32 {
		return nil, fmt.Errorf("market state too large: %d bytes", len(marketState))
	}

	id := s.EntityID()
	buf := make([]byte, 0, len(id)+8+8+4+len(priceData)+4+len(marketState))
	buf = append(buf, id[:]...)
	buf = binary.BigEndian.AppendUint64(buf, s.Price())
	buf = binary.BigEndian.AppendUint64(buf, s.Time())
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(priceData)))
	buf = append(buf, priceData...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(marketState)))
	buf = append(buf, marketState...)
	return buf, nil
}
