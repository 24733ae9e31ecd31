package common

// UploadProgressEvent is the event name progress notifications are broadcast
// under.
const UploadProgressEvent = "upload-progress"

// DefaultListLimit bounds how many queued jobs a single listing returns.
const DefaultListLimit = 200

// DefaultHTTPMethod is used for queued jobs that do not specify one.
const DefaultHTTPMethod = "POST"
