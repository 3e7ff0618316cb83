// Package pdf 使用无头 Chromium 把打印 HTML 转成 PDF。
package pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const defaultTimeout = 45 * time.Second

// 等待 WebFont 就绪，最多 3 秒，避免回退字体导致排版差异。
const waitFontsJS = `() => {
  if (document && document.fonts && document.fonts.ready) {
    return Promise.race([
      document.fonts.ready.then(() => true),
      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
    ]);
  }
  return true;
}`

// Chromium 每次渲染启动一个独立的浏览器进程，渲染结束即回收。
type Chromium struct {
	bin     string
	timeout time.Duration
}

// NewChromium 构造渲染器。bin 为空时自动查找本机浏览器，找不到则由 launcher 下载。
func NewChromium(bin string, timeout time.Duration) *Chromium {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Chromium{bin: bin, timeout: timeout}
}

// Render 渲染 HTML 并返回 PDF 字节。
func (c *Chromium) Render(ctx context.Context, html []byte) ([]byte, error) {
	launch := launcher.New().Headless(true).NoSandbox(true)
	if c.bin != "" {
		launch = launch.Bin(c.bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if _, err := page.Eval(waitFontsJS); err != nil {
		return nil, fmt.Errorf("wait fonts: %w", err)
	}
	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return nil, fmt.Errorf("emulate print media: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}
