package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:view",
		"attempt:start",
		"attempt:submit",
		"attempt:view-own",
		"proctoring:ingest",
	},
	"teacher": {
		"quiz:create",
		"quiz:view",
		"attempt:view-all",
		"attempt:grade",
		"proctoring:report",
	},
	"admin": {
		"*", // everything
	},
}
