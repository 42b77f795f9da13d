package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/store"
	"github.com/xraph/migrator/types"
)

type recordModel struct {
	grove.BaseModel `grove:"table:migrator_records"`

	RecordKey   string    `grove:"record_key,pk" bson:"_id"`
	ID          string    `grove:"id"            bson:"record_id"`
	Namespace   string    `grove:"namespace"     bson:"namespace"`
	Address     string    `grove:"address"       bson:"address"`
	Migrated    bool      `grove:"migrated"      bson:"migrated"`
	SessionID   string    `grove:"session_id"    bson:"session_id"`
	BurnOutcome string    `grove:"burn_outcome"  bson:"burn_outcome"`
	BurnTxHash  string    `grove:"burn_tx_hash"  bson:"burn_tx_hash"`
	CreatedAt   time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"    bson:"updated_at"`
}

func toRecordModel(r *store.Record) *recordModel {
	return &recordModel{
		RecordKey:   store.Key(r.Namespace, r.Address),
		ID:          r.ID.String(),
		Namespace:   r.Namespace,
		Address:     r.Address,
		Migrated:    r.Migrated,
		SessionID:   r.SessionID.String(),
		BurnOutcome: r.BurnOutcome,
		BurnTxHash:  r.BurnTxHash,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromRecordModel(m *recordModel) (*store.Record, error) {
	recID, err := id.ParseRecordID(m.ID)
	if err != nil {
		return nil, err
	}
	var sessID id.ID
	if m.SessionID != "" {
		if sessID, err = id.ParseSessionID(m.SessionID); err != nil {
			return nil, err
		}
	}
	return &store.Record{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          recID,
		Namespace:   m.Namespace,
		Address:     m.Address,
		Migrated:    m.Migrated,
		SessionID:   sessID,
		BurnOutcome: m.BurnOutcome,
		BurnTxHash:  m.BurnTxHash,
	}, nil
}
