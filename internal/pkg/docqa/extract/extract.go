// Package extract 提供 PDF 文本提取，按页返回带页码的文本。
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrInvalidPDF 文件不是合法的 PDF。
	ErrInvalidPDF = errors.New("invalid pdf document")

	// ErrEncrypted PDF 已加密，不支持提取。
	ErrEncrypted = errors.New("pdf document is encrypted")

	// ErrNoText 所有页面都没有可提取的文本（如纯扫描件）。
	ErrNoText = errors.New("no extractable text in pdf document")
)

// Page 一页的提取结果。
type Page struct {
	// Number 页码，从 1 开始。
	Number int

	// Text 该页的纯文本内容，已去除首尾空白。
	Text string
}

// Result 整个文档的提取结果。
type Result struct {
	// Pages 含有可提取文本的页面，按页码升序。
	Pages []Page

	// PageCount 文档总页数，含无文本的页面。
	PageCount int
}

// Extract 从 PDF 字节流提取每页文本。
//
// 无文本的页面被跳过，其余页面保留原始页码。文档合法但所有页面
// 均无文本时返回 ErrNoText。
func Extract(data []byte) (result *Result, err error) {
	// 底层解析库对畸形文件可能 panic，统一转换为 ErrInvalidPDF
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypted") {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	pageCount := reader.NumPage()
	pages := make([]Page, 0, pageCount)

	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// 跳过无法解析的页面
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, ErrNoText
	}

	return &Result{Pages: pages, PageCount: pageCount}, nil
}
