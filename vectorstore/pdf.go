package vectorstore

import (
	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"
)

// LoadPDF returns one document per page of the PDF file at path.
// Pages are numbered from zero in the metadata.
func LoadPDF(path string) ([]Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open PDF: %s", path)
	}
	defer f.Close()

	fonts := make(map[string]*pdf.Font)
	pages := r.NumPage()
	docs := make([]Document, 0, pages)
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read page %d of %s", i, path)
		}
		docs = append(docs, Document{
			Content: text,
			Metadata: map[string]any{
				MetadataSource: path,
				MetadataPage:   i - 1,
			},
		})
	}
	return docs, nil
}
