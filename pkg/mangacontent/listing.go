package mangacontent

import "sort"

// OrderedFiles returns the attachments in delivery order: numbered image
// pages ascending, then un-numbered files by upload time. Ties keep their
// stored order.
func OrderedFiles(files []FileAttachment) []FileAttachment {
	out := append([]FileAttachment(nil), files...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PageNumber, out[j].PageNumber
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
	})
	return out
}

// SortNewestFirst orders items by creation time, newest first.
func SortNewestFirst(items []*Manga) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
