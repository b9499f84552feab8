package device

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"

	. "github.com/weberc2/diskfs/pkg/types"
)

// S3Device keeps one object per sector under `<prefix>/<idx>`. Sectors
// never written read back as all zeros, which matches a freshly zeroed
// disk and lets Format work against an empty bucket.
type S3Device struct {
	Client  *s3.S3
	Bucket  string
	Prefix  string
	Sectors SectorIdx
}

func (d *S3Device) key(idx SectorIdx) string {
	return fmt.Sprintf("%s/%08d", d.Prefix, idx)
}

func (d *S3Device) ReadSector(idx SectorIdx, b []byte) error {
	if idx < 0 || idx >= d.Sectors {
		return fmt.Errorf("reading sector `%d`: %w", idx, OutOfRangeErr)
	}
	key := d.key(idx)
	rsp, err := d.Client.GetObject(&s3.GetObjectInput{
		Bucket: &d.Bucket,
		Key:    &key,
	})
	if err != nil {
		if err, ok := err.(awserr.Error); ok {
			if err.Code() == s3.ErrCodeNoSuchKey {
				for i := range b[:SectorSize] {
					b[i] = 0
				}
				return nil
			}
		}
		return fmt.Errorf(
			"reading sector `%d` from `s3://%s/%s`: %w",
			idx,
			d.Bucket,
			key,
			err,
		)
	}
	defer rsp.Body.Close()
	if _, err := io.ReadFull(rsp.Body, b[:SectorSize]); err != nil {
		return fmt.Errorf(
			"reading sector `%d` from `s3://%s/%s`: %w",
			idx,
			d.Bucket,
			key,
			err,
		)
	}
	return nil
}

func (d *S3Device) WriteSector(idx SectorIdx, b []byte) error {
	if idx < 0 || idx >= d.Sectors {
		return fmt.Errorf("writing sector `%d`: %w", idx, OutOfRangeErr)
	}
	key := d.key(idx)
	if _, err := d.Client.PutObject(&s3.PutObjectInput{
		Bucket: &d.Bucket,
		Key:    &key,
		Body:   bytes.NewReader(b[:SectorSize]),
	}); err != nil {
		return fmt.Errorf(
			"writing sector `%d` to `s3://%s/%s`: %w",
			idx,
			d.Bucket,
			key,
			err,
		)
	}
	return nil
}

func (d *S3Device) SectorCount() SectorIdx { return d.Sectors }
