package chunker

import (
	"context"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/docsift/docsift/extract"
	"github.com/docsift/docsift/sniff"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// plainText produces the indexable text for the generic handler. HTML gets a
// structure-preserving markdown projection; everything else goes through
// local extraction. An empty markdown conversion falls back to tag
// stripping.
func (f *Factory) plainText(ctx context.Context, data []byte, filename string, det sniff.Detection) (string, error) {
	if det.Format == sniff.FormatHTML {
		md, err := mdConverter.ConvertString(string(data))
		if err == nil && strings.TrimSpace(md) != "" && len(strings.TrimSpace(md)) >= 10 {
			return strings.TrimSpace(md), nil
		}
	}

	result, err := extract.Extract(ctx, data, filename, det)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}
