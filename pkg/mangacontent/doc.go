// Package mangacontent provides moderated manga metadata with attached page
// images, archives and covers.
//
// A single Service interface owns the lifecycle: creation and edits put a
// manga into pending moderation, moderators approve or reject it, and only
// approved manga are visible to anonymous readers. Every Service method
// authorizes the requesting Identity itself, so HTTP handlers only translate
// requests and errors.
//
// Entities live behind Repository (memory and Postgres under repo/) and file
// bytes behind BlobStore (memory, filesystem, S3 and GridFS under storage/).
// The entity row is the source of truth for which blobs a manga references;
// a blob written during a failed mutation is deleted before the error is
// returned.
package mangacontent
