package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "contractpay/pkg/domain-errors"
)

// Typed identifiers. Each is a UUID underneath; the distinct types keep a
// contract id from being passed where a time-log id is expected.
type (
	UserID      uuid.UUID
	TalentID    uuid.UUID
	ContractID  uuid.UUID
	MilestoneID uuid.UUID
	TimeLogID   uuid.UUID
	PayoutID    uuid.UUID
	EventID     uuid.UUID
)

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id TalentID) String() string    { return uuid.UUID(id).String() }
func (id ContractID) String() string  { return uuid.UUID(id).String() }
func (id MilestoneID) String() string { return uuid.UUID(id).String() }
func (id TimeLogID) String() string   { return uuid.UUID(id).String() }
func (id PayoutID) String() string    { return uuid.UUID(id).String() }
func (id EventID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TalentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ContractID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id MilestoneID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TimeLogID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PayoutID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id TalentID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ContractID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id MilestoneID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id TimeLogID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id PayoutID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TalentID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ContractID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MilestoneID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TimeLogID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PayoutID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewTimeLogID, NewPayoutID and NewEventID mint fresh random ids.
func NewTimeLogID() TimeLogID { return TimeLogID(uuid.New()) }
func NewPayoutID() PayoutID   { return PayoutID(uuid.New()) }
func NewEventID() EventID     { return EventID(uuid.New()) }

func parseUUID(s, field string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return u, nil
}

// ParseUserID parses a user id at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseTalentID parses a talent profile id.
func ParseTalentID(s string) (TalentID, error) {
	u, err := parseUUID(s, "talent_id")
	return TalentID(u), err
}

// ParseContractID parses a contract id.
func ParseContractID(s string) (ContractID, error) {
	u, err := parseUUID(s, "contract_id")
	return ContractID(u), err
}

// ParseMilestoneID parses a milestone id.
func ParseMilestoneID(s string) (MilestoneID, error) {
	u, err := parseUUID(s, "milestone_id")
	return MilestoneID(u), err
}

// ParseTimeLogID parses a time-log id.
func ParseTimeLogID(s string) (TimeLogID, error) {
	u, err := parseUUID(s, "time_log_id")
	return TimeLogID(u), err
}

// ParsePayoutID parses a payout id.
func ParsePayoutID(s string) (PayoutID, error) {
	u, err := parseUUID(s, "payout_id")
	return PayoutID(u), err
}
