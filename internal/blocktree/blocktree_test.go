package blocktree

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestParseHTMLBuildsBlocks(t *testing.T) {
	doc, err := ParseHTML(`<h1>Hipertensi</h1>
<p>Latar belakang penelitian.</p>
<ul><li>Penyebab</li><li>Gejala</li></ul>
<ol><li>Bab satu</li></ol>
<blockquote>Kutipan ahli.</blockquote>
<pre>kode
baris dua</pre>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Block{
		{Kind: BlockHeading, Level: 1, Text: "Hipertensi"},
		{Kind: BlockParagraph, Text: "Latar belakang penelitian."},
		{Kind: BlockListItem, Text: "Penyebab"},
		{Kind: BlockListItem, Text: "Gejala"},
		{Kind: BlockListItem, Text: "Bab satu", Ordered: true},
		{Kind: BlockQuote, Text: "Kutipan ahli."},
		{Kind: BlockCode, Text: "kode\nbaris dua"},
	}
	if doc.Len() != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), doc.Len(), doc.Blocks)
	}
	for i, block := range want {
		if doc.Blocks[i] != block {
			t.Fatalf("block %d: expected %+v, got %+v", i, block, doc.Blocks[i])
		}
	}
}

func TestParseHTMLKeepsUnknownElementText(t *testing.T) {
	doc, err := ParseHTML(`<section><p>Dalam wadah</p></section><custom>Teks bebas</custom>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Len() != 2 {
		t.Fatalf("expected 2 blocks, got %+v", doc.Blocks)
	}
	if doc.Blocks[1].Text != "Teks bebas" {
		t.Fatalf("unknown element text lost: %+v", doc.Blocks[1])
	}
}

func TestParseHTMLKeepsInlineImages(t *testing.T) {
	doc, err := ParseHTML(`<p>sebelum</p><img src="/uploads/fig1.png" alt="Grafik tekanan"><p>sesudah</p>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Block{
		{Kind: BlockParagraph, Text: "sebelum"},
		{Kind: BlockImage, Src: "/uploads/fig1.png", Alt: "Grafik tekanan"},
		{Kind: BlockParagraph, Text: "sesudah"},
	}
	if doc.Len() != len(want) {
		t.Fatalf("expected %d blocks, got %+v", len(want), doc.Blocks)
	}
	for i, block := range want {
		if doc.Blocks[i] != block {
			t.Fatalf("block %d: expected %+v, got %+v", i, block, doc.Blocks[i])
		}
	}

	rendered := RenderHTML(doc)
	if !strings.Contains(rendered, `<img src="/uploads/fig1.png" alt="Grafik tekanan">`) {
		t.Fatalf("image lost on render: %q", rendered)
	}
	again, err := ParseHTML(rendered)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if again.Len() != doc.Len() || again.Blocks[1] != doc.Blocks[1] {
		t.Fatalf("round trip changed image block: %+v", again.Blocks)
	}
}

func TestParseHTMLExtractsImageInsideParagraph(t *testing.T) {
	doc, err := ParseHTML(`<p>teks <img src="/uploads/fig2.png"></p>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Len() != 2 {
		t.Fatalf("expected paragraph + image, got %+v", doc.Blocks)
	}
	if doc.Blocks[1].Kind != BlockImage || doc.Blocks[1].Src != "/uploads/fig2.png" {
		t.Fatalf("nested image lost: %+v", doc.Blocks[1])
	}
}

func TestParseHTMLEmpty(t *testing.T) {
	doc, err := ParseHTML("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Len() != 0 {
		t.Fatalf("expected empty document, got %+v", doc.Blocks)
	}
}

func TestRenderHTMLRoundTrip(t *testing.T) {
	source := `<h2>Metode</h2>
<p>Penelitian kuantitatif.</p>
<ul><li>Sampel</li><li>Instrumen</li></ul>`
	doc, err := ParseHTML(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rendered := RenderHTML(doc)
	again, err := ParseHTML(rendered)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if again.Len() != doc.Len() {
		t.Fatalf("round trip changed block count: %d vs %d", doc.Len(), again.Len())
	}
	for i := range doc.Blocks {
		if doc.Blocks[i] != again.Blocks[i] {
			t.Fatalf("block %d changed: %+v vs %+v", i, doc.Blocks[i], again.Blocks[i])
		}
	}
}

func TestRenderHTMLEscapesText(t *testing.T) {
	doc := &Document{Blocks: []Block{{Kind: BlockParagraph, Text: `tekanan <140/90> & "normal"`}}}
	rendered := RenderHTML(doc)
	if strings.Contains(rendered, "<140/90>") {
		t.Fatalf("text not escaped: %q", rendered)
	}
	if !strings.Contains(rendered, "&lt;140/90&gt;") {
		t.Fatalf("expected escaped text, got %q", rendered)
	}
}

func TestRenderHTMLClosesLists(t *testing.T) {
	doc := &Document{Blocks: []Block{
		{Kind: BlockListItem, Text: "satu"},
		{Kind: BlockListItem, Text: "dua", Ordered: true},
		{Kind: BlockParagraph, Text: "penutup"},
	}}
	rendered := RenderHTML(doc)
	for _, tag := range []string{"<ul>", "</ul>", "<ol>", "</ol>"} {
		if !strings.Contains(rendered, tag) {
			t.Fatalf("missing %s in %q", tag, rendered)
		}
	}
}

func TestRenderDOCXArchive(t *testing.T) {
	doc := &Document{Blocks: []Block{
		{Kind: BlockHeading, Level: 1, Text: "Pendahuluan"},
		{Kind: BlockParagraph, Text: "Isi bab & pembahasan."},
		{Kind: BlockListItem, Text: "Tujuan"},
		{Kind: BlockImage, Src: "/uploads/fig1.png", Alt: "Grafik tekanan"},
	}}
	data, err := RenderDOCX(doc, "Skripsi Hipertensi")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := map[string]bool{}
	var body string
	for _, file := range reader.File {
		names[file.Name] = true
		if file.Name == "word/document.xml" {
			rc, err := file.Open()
			if err != nil {
				t.Fatalf("open part: %v", err)
			}
			raw, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("read part: %v", err)
			}
			body = string(raw)
		}
	}
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/styles.xml", "word/document.xml"} {
		if !names[name] {
			t.Fatalf("missing archive part %s", name)
		}
	}
	if !strings.Contains(body, "Skripsi Hipertensi") {
		t.Fatalf("title missing from document body")
	}
	if !strings.Contains(body, `<w:pStyle w:val="Heading1"/>`) {
		t.Fatalf("heading style missing: %s", body)
	}
	if !strings.Contains(body, "Isi bab &amp; pembahasan.") {
		t.Fatalf("paragraph text not escaped: %s", body)
	}
	if !strings.Contains(body, "[Gambar: Grafik tekanan]") {
		t.Fatalf("image placeholder missing: %s", body)
	}
}
