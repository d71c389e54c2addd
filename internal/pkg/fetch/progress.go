// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fetch

import (
	"context"
	"hash"
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func initProgressBar(totalSize int64) (*mpb.Progress, *mpb.Bar) {
	p := mpb.New(mpb.WithOutput(sylog.Writer()))

	if totalSize > 0 {
		return p, p.AddBar(totalSize,
			mpb.PrependDecorators(
				decor.Counters(decor.SizeB1024(0), "%.1f / %.1f"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.AverageSpeed(decor.SizeB1024(0), " % .1f "),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)
	}
	return p, p.AddBar(totalSize,
		mpb.PrependDecorators(
			decor.Current(decor.SizeB1024(0), "%.1f / ???"),
		),
		mpb.AppendDecorators(
			decor.AverageSpeed(decor.SizeB1024(0), " % .1f "),
		),
	)
}

// See: https://ixday.github.io/post/golang-cancel-copy/
type readerFunc func(p []byte) (n int, err error)

func (rf readerFunc) Read(p []byte) (n int, err error) { return rf(p) }

// copyCallback copies a download body to a writer while feeding the
// digest hash, optionally behind a progress bar.
type copyCallback func(totalSize int64, r io.Reader, w io.Writer, h hash.Hash) error

// progressCallback returns a copy callback with a progress bar unless the
// log level says to stay quiet.
func progressCallback(ctx context.Context) copyCallback {
	if sylog.GetLevel() <= -1 {
		return func(_ int64, r io.Reader, w io.Writer, h hash.Hash) error {
			_, err := copyWithContext(ctx, io.MultiWriter(w, h), r)
			return err
		}
	}

	return func(totalSize int64, r io.Reader, w io.Writer, h hash.Hash) error {
		p, bar := initProgressBar(totalSize) //nolint:contextcheck

		body := bar.ProxyReader(r)
		defer body.Close()

		written, err := copyWithContext(ctx, io.MultiWriter(w, h), body)
		if err != nil {
			bar.Abort(true)
			return err
		}

		// Must ensure bar is complete for a download with unknown size,
		// or it will hang.
		if totalSize <= 0 {
			bar.SetTotal(written, true)
		}
		p.Wait()

		return nil
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (written int64, err error) {
	// io.Copy reads by chunk; inserting the cancellation check before each
	// read is the earliest possible point in the call process.
	written, err = io.Copy(dst, readerFunc(func(p []byte) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
			return src.Read(p)
		}
	}))
	return written, err
}
