// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package errors

const (
	RequestParameterInvalid int = 4001
	AuthFailed              int = 4003
	RequestDataNotExisted   int = 4004
	RequestTooLarge         int = 4013
	RateLimited             int = 4029

	InternalError     int = 5000
	CodeDatabaseError int = 5002
	QueueOverflow     int = 5004
	RecordDeadline    int = 5005

	ClientError     int = 6001
	OpensearchError int = 6003
	CloudwatchError int = 6004

	CodeInitializeError int = 7001
	CodeLackOfConfig    int = 7002

	CodeRemoteServiceError int = 8001
)
