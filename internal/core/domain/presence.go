package domain

import "hash/fnv"

// Position is a cursor location on a sheet.
type Position struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
}

// Selection is an optional cursor selection range.
type Selection struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// UserCursor is a connected user's live cursor on one sheet.
// Created on join, mutated on move, deleted on leave; never persisted.
type UserCursor struct {
	UserID    string     `json:"userId"`
	UserName  string     `json:"userName"`
	Color     string     `json:"color"`
	Position  Position   `json:"position"`
	Selection *Selection `json:"selection,omitempty"`
}

// cursorPalette is the fixed set of cursor colours.
var cursorPalette = []string{
	"#e53935", "#8e24aa", "#3949ab", "#1e88e5", "#00897b",
	"#43a047", "#fdd835", "#fb8c00", "#6d4c41", "#546e7a",
}

// ColorForUser maps a user id onto the palette. The mapping is a pure
// hash, so the same user always gets the same colour.
func ColorForUser(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return cursorPalette[h.Sum32()%uint32(len(cursorPalette))]
}

// PresenceStats summarises live presence across all sheets.
type PresenceStats struct {
	ActiveUsers             int     `json:"totalActiveUsers"`
	ActiveSheets            int     `json:"totalActiveSheets"`
	SheetsWithMultipleUsers int     `json:"sheetsWithMultipleUsers"`
	AverageUsersPerSheet    float64 `json:"averageUsersPerSheet"`
}
