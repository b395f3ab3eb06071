package dataset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

// remoteDataset is the client half of the "remote"/"http" kind (spec
// §4.5/§6): it speaks the same wire protocol internal/httpwire serves,
// over plain net/http + pkg/wire's envelope codec, rather than
// importing internal/httpwire directly (which would create an import
// cycle back through the dataset pool the server itself builds).
type remoteDataset struct {
	name   string
	base   string
	client *http.Client
}

func newRemoteDataset(cfg Config) (Dataset, error) {
	if cfg.RemoteURL == "" {
		return nil, arkierr.Consistency("dataset %q: missing remote URL", cfg.Name)
	}
	return &remoteDataset{
		name:   cfg.Name,
		base:   strings.TrimRight(cfg.RemoteURL, "/"),
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (d *remoteDataset) Name() string   { return d.name }
func (d *remoteDataset) Kind() string   { return "remote" }
func (d *remoteDataset) Writable() bool { return false }
func (d *remoteDataset) Queryable() bool { return true }

func (d *remoteDataset) Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	return nil, notSupported("remote", "acquire")
}

// Query posts mtr to /querydata and decodes the resulting stream of
// MD records (spec §6: "POST /querydata with matcher=…&withdata=…").
func (d *remoteDataset) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	body, err := d.post("/querydata", url.Values{
		"matcher":  {matcherString(mtr)},
		"withdata": {"0"},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	r := wire.NewReader(body)
	var out []*metadata.Metadata
	for r.Next() {
		md, err := wire.ReadMetadata(r.Record())
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	return out, r.Err()
}

// QuerySummary posts mtr to /querysummary and decodes the binary
// Summary response.
func (d *remoteDataset) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	body, err := d.post("/querysummary", url.Values{"matcher": {matcherString(mtr)}})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rec, err := wire.ReadRecord(body)
	if err != nil {
		return nil, err
	}
	return wire.ReadSummary(rec)
}

// ReadData is not supported on a remote dataset: it always returns an
// error and makes no request to the server.
func (d *remoteDataset) ReadData(md *metadata.Metadata) ([]byte, error) {
	return nil, notSupported("remote", "read_data by Source (use Query with withdata=1 instead)")
}

func matcherString(mtr *matcher.Matcher) string {
	if mtr == nil {
		return ""
	}
	return mtr.String()
}

func (d *remoteDataset) post(path string, form url.Values) (io.ReadCloser, error) {
	resp, err := d.client.PostForm(d.base+path, form)
	if err != nil {
		return nil, arkierr.IO(err, "posting to %s%s", d.base, path)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, arkierr.IO(fmt.Errorf("status %s", resp.Status), "remote dataset %s request %s", d.name, path)
	}
	return resp.Body, nil
}
