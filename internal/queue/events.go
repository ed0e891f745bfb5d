package queue

import "github.com/oraclevm/oracle-vm/internal/db/model"

const SettlementProofEventType = "settlement_proof"

// SettlementProofEvent is the message consumed by the external verifier.
// All hashes and the witness are hex encoded.
type SettlementProofEvent struct {
	EventType         string `json:"event_type"`
	ID                string `json:"id"`
	Kind              string `json:"kind"`
	SettlementID      string `json:"settlement_id"`
	Price             uint64 `json:"price"`
	Time              uint64 `json:"time"`
	Height            uint64 `json:"height"`
	TraceHash         string `json:"trace_hash"`
	ProgramCommitment string `json:"program_commitment"`
	InputHash         string `json:"input_hash"`
	OutputHash        string `json:"output_hash"`
	Witness           string `json:"witness"`
}

func NewSettlementProofEvent(doc *model.SettlementProofDocument) *SettlementProofEvent {
	return &SettlementProofEvent{
		EventType:         SettlementProofEventType,
		ID:                doc.ID,
		Kind:              doc.Kind,
		SettlementID:      doc.SettlementID,
		Price:             doc.Price,
		Time:              doc.Time,
		Height:            doc.Height,
		TraceHash:         doc.TraceHash,
		ProgramCommitment: doc.ProgramCommitment,
		InputHash:         doc.InputHash,
		OutputHash:        doc.OutputHash,
		Witness:           doc.Witness,
	}
}
