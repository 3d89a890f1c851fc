package domain

import "time"

// ProjectPatch is an explicit partial update: only non-nil fields are
// applied. SetParent distinguishes "don't touch" (nil) from "make root"
// (non-nil with Parent == nil).
type ProjectPatch struct {
	Name        *string
	Slug        *string
	Status      *Status
	Severity    *Severity
	Description *string
	StartAt     *time.Time
	EndAt       *time.Time
	SetParent   *ParentChange
}

// ParentChange carries a re-parenting request. Parent == nil detaches the
// project into a root.
type ParentChange struct {
	Parent *string
}

func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Slug == nil && p.Status == nil && p.Severity == nil &&
		p.Description == nil && p.StartAt == nil && p.EndAt == nil && p.SetParent == nil
}

// SettingsPatch mirrors ProjectPatch for the settings row.
type SettingsPatch struct {
	AutoAssignCreator *bool
	AutoAssignMembers *bool
	DefaultDueDays    *int
	DefaultPriority   *Severity
	NotifyOnStatus    *bool
	NotifyOnAssign    *bool
}

func (p SettingsPatch) Empty() bool {
	return p.AutoAssignCreator == nil && p.AutoAssignMembers == nil && p.DefaultDueDays == nil &&
		p.DefaultPriority == nil && p.NotifyOnStatus == nil && p.NotifyOnAssign == nil
}
