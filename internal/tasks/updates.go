package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchUsers Phase = iota
	ExportUser
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchUsers:
		return "fetch_users"
	case ExportUser:
		return "export_user"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchingUsersUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUsers,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Exporting saved content for %d users...", total),
	}
}

func exportingUserUpdate(step, total int, email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportUser,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, email),
	}
}

func exportCompletedUpdate(step, total int, res UserExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportUser,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, res.Email, len(res.Files)),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res UserExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportUser,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Email, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote manifest %s", path),
	}
}
