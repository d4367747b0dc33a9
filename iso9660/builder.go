package iso9660

import (
	"io"
	"os"
)

// Builder orchestrates planning and writing an ISO 9660 / Joliet / El Torito / Rock
// Ridge image. A Builder is reusable across multiple Plan/Write cycles as long as its
// FormatOptions is not mutated concurrently.
type Builder struct {
	opts *FormatOptions
}

// NewBuilder validates opts and returns a Builder ready to Plan and Write.
func NewBuilder(opts *FormatOptions) (*Builder, error) {
	if opts == nil {
		opts = DefaultFormatOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Builder{opts: opts}, nil
}

// Plan builds the in-memory directory tree from opts.Files, mangles every namespace's
// names, and runs the layout planner, returning a fully populated ImagePlan. Plan does
// not touch any backing store; it is pure computation over the in-memory tree.
func (b *Builder) Plan() (*ImagePlan, error) {
	root, err := buildTree(b.opts.Files, b.opts)
	if err != nil {
		return nil, err
	}
	plan, err := calculateLayout(root, b.opts)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Write serializes plan to w, region by region; w must support random-access writes.
// A nil return means every reserved region has been written and is safe to rely on; a
// non-nil return means w is in an indeterminate state and must be discarded.
func (b *Builder) Write(w io.WriteSeeker, plan *ImagePlan) error {
	return writeImage(w, plan, b.opts)
}

// BuildToFile is a convenience wrapper: Plan, create path, Write, and pad/truncate the
// resulting file to the plan's exact total size.
func (b *Builder) BuildToFile(path string) (plan *ImagePlan, err error) {
	plan, err = b.Plan()
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, wrapf(KindIoError, path, err, "creating output file")
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = wrapf(KindIoError, path, closeErr, "closing output file")
		}
	}()

	if err = b.Write(f, plan); err != nil {
		return plan, err
	}
	if err = finalizeImageSize(f, plan.totalSectors); err != nil {
		return plan, err
	}
	return plan, nil
}

// finalizeImageSize pads or truncates f so its length matches the plan's total sector
// count exactly.
func finalizeImageSize(f *os.File, totalSectors uint32) error {
	expected := int64(totalSectors) * SectorSize
	current, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return wrapf(KindIoError, "", err, "seeking to end of output file")
	}
	if current < expected {
		if err := f.Truncate(expected); err != nil {
			return wrapf(KindIoError, "", err, "extending output file to final size")
		}
	} else if current > expected {
		if err := f.Truncate(expected); err != nil {
			return wrapf(KindIoError, "", err, "truncating output file to final size")
		}
	}
	return nil
}
