package services

// Pipeline stage names used in errors, logs, audit events and ledger rows.
const (
	StageRead     = "read"
	StageClassify = "classify"
	StageExtract  = "extract"
	StageResolve  = "resolve"
	StageValidate = "validate"
	StageCommit   = "commit"
)
