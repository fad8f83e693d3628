/*
Package objectstore implements the object-store uploader (spec §4.6):
streaming an artifact to an S3-compatible store and, critically, the
HEAD-based verification primitive that pkg/collector's VERIFY phase
treats as the sole authoritative success signal.

Upload chooses single-part PutObject or the aws-sdk-go-v2 s3/manager
multipart uploader based on config.Upload.MultipartThreshold. Head
always issues a fresh HEAD request rather than trusting Upload's
return value, because the upload transport has been observed to report
spurious failures (proxy resets after the bytes were in fact received)
that a HEAD would correctly show as already-present.

A custom endpoint URL supports non-AWS S3-compatible stores, and an
injected *http.Client can carry a forward proxy; this package does not
read config.Proxy itself.
*/
package objectstore
