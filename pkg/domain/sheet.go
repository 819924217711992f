package domain

import (
	dErrors "sheetwatch/pkg/domain-errors"
)

// SheetType identifies which of the two posted vote-count sheets a record
// refers to. Every submission tracks both sheets independently.
type SheetType string

const (
	SheetConstituency SheetType = "constituency"
	SheetPartyList    SheetType = "partylist"
)

// ParseSheetType validates a wire-level sheet type string.
func ParseSheetType(s string) (SheetType, error) {
	t := SheetType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid sheet_type: must be 'constituency' or 'partylist'")
	}
	return t, nil
}

// IsValid checks if the sheet type is one of the supported enum values.
func (t SheetType) IsValid() bool {
	return t == SheetConstituency || t == SheetPartyList
}

func (t SheetType) String() string {
	return string(t)
}

// SheetTypes lists both sheet variants in stable order.
func SheetTypes() []SheetType {
	return []SheetType{SheetConstituency, SheetPartyList}
}
