package entity

import (
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// State strings are open-ended on purpose: systemd may grow new values and
// they must round-trip through this program unmodified. The constants below
// cover the documented sets; anything else is carried verbatim.
// https://www.freedesktop.org/software/systemd/man/org.freedesktop.systemd1.html

type UnitType string

const (
	TypeService   UnitType = "service"
	TypeSocket    UnitType = "socket"
	TypeDevice    UnitType = "device"
	TypeMount     UnitType = "mount"
	TypeAutomount UnitType = "automount"
	TypeTarget    UnitType = "target"
	TypeTimer     UnitType = "timer"
	TypePath      UnitType = "path"
	TypeSlice     UnitType = "slice"
	TypeScope     UnitType = "scope"

	// TypeAll is a filter sentinel, never a real unit type.
	TypeAll UnitType = "all"
)

type LoadState string

const (
	LoadLoaded     LoadState = "loaded"
	LoadNotFound   LoadState = "not-found"
	LoadBadSetting LoadState = "bad-setting"
	LoadError      LoadState = "error"
	LoadMasked     LoadState = "masked"
)

type ActiveState string

const (
	ActiveActive       ActiveState = "active"
	ActiveReloading    ActiveState = "reloading"
	ActiveInactive     ActiveState = "inactive"
	ActiveFailed       ActiveState = "failed"
	ActiveActivating   ActiveState = "activating"
	ActiveDeactivating ActiveState = "deactivating"
)

// SubState is a free-form refinement of ActiveState whose value set depends on
// the unit type (running, exited, dead, waiting, plugged, ...). It is never
// validated against a closed set.
type SubState string

const SubFailed SubState = "failed"

type FileState string

const (
	FileEnabled   FileState = "enabled"
	FileEnabledRT FileState = "enabled-runtime"
	FileLinked    FileState = "linked"
	FileLinkedRT  FileState = "linked-runtime"
	FileMasked    FileState = "masked"
	FileMaskedRT  FileState = "masked-runtime"
	FileStatic    FileState = "static"
	FileDisabled  FileState = "disabled"
	FileInvalid   FileState = "invalid"
)

type FilePreset string

const (
	PresetEnabled  FilePreset = "enabled"
	PresetDisabled FilePreset = "disabled"
)

// Unit is one normalized entry from the manager's unit enumeration.
// FileState, FilePreset and Path come from per-unit property reads and are
// empty unless the caller fetched them.
type Unit struct {
	Name        string      `json:"name"`
	Type        UnitType    `json:"type"`
	Description string      `json:"description"`
	Loaded      LoadState   `json:"load_state"`
	Active      ActiveState `json:"active_state"`
	Sub         SubState    `json:"sub_state"`
	FileState   FileState   `json:"file_state,omitempty"`
	FilePreset  FilePreset  `json:"file_preset,omitempty"`
	Path        string      `json:"path,omitempty"`
}

// FromStatus normalizes a raw manager record. Total: every field gets a value,
// unknown state strings pass through as-is.
func FromStatus(st dbus.UnitStatus) Unit {
	return Unit{
		Name:        st.Name,
		Type:        TypeOf(st.Name),
		Description: st.Description,
		Loaded:      LoadState(st.LoadState),
		Active:      ActiveState(st.ActiveState),
		Sub:         SubState(st.SubState),
	}
}

// TypeOf derives the unit type from the name suffix. A name without a dot
// yields the whole name, mirroring how systemd would reject it anyway.
func TypeOf(name string) UnitType {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return UnitType(name[i+1:])
	}
	return UnitType(name)
}

// KnownTypes lists the documented unit types plus the "all" filter sentinel.
func KnownTypes() []UnitType {
	return []UnitType{
		TypeAll, TypeAutomount, TypeDevice, TypeMount, TypePath,
		TypeScope, TypeService, TypeSlice, TypeSocket, TypeTarget, TypeTimer,
	}
}

func KnownLoadStates() []LoadState {
	return []LoadState{LoadLoaded, LoadNotFound, LoadBadSetting, LoadError, LoadMasked}
}

func KnownActiveStates() []ActiveState {
	return []ActiveState{
		ActiveActive, ActiveReloading, ActiveInactive,
		ActiveFailed, ActiveActivating, ActiveDeactivating,
	}
}

func KnownFileStates() []FileState {
	return []FileState{
		FileEnabled, FileEnabledRT, FileLinked, FileLinkedRT,
		FileMasked, FileMaskedRT, FileStatic, FileDisabled, FileInvalid,
	}
}

func KnownFilePresets() []FilePreset {
	return []FilePreset{PresetEnabled, PresetDisabled}
}
