package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/runner"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// X11Capturer captures windows in-process over the X protocol and stores them
// as BMP, which is cheap to encode and readable by tesseract.
type X11Capturer struct {
	dir              string
	conn             *xgb.Conn
	screen           *xproto.ScreenInfo
	compositeEnabled bool
	mu               sync.Mutex
}

var _ Capturer = (*X11Capturer)(nil)

// NewX11Capturer connects to the X server and initializes the Composite
// extension when available
func NewX11Capturer(dir string) (*X11Capturer, error) {
	if dir == "" {
		dir = DefaultDir
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrapf(runner.ErrToolUnavailable, "connect to X server: %v", err)
	}

	c := &X11Capturer{
		dir:    dir,
		conn:   conn,
		screen: xproto.Setup(conn).DefaultScreen(conn),
	}

	log := logger.WithComponent("x11-capturer")
	if err := composite.Init(conn); err != nil {
		log.Debug().Err(err).Msg("Composite extension not available - obscured windows may capture incorrectly")
	} else {
		c.compositeEnabled = true
	}

	return c, nil
}

// Close closes the X11 connection
func (c *X11Capturer) Close() error {
	c.conn.Close()
	return nil
}

// Name returns the capturer name
func (c *X11Capturer) Name() string {
	return "x11"
}

// Capture implements Capturer
func (c *X11Capturer) Capture(ctx context.Context, windowID string) (string, error) {
	path, err := PathFor(c.dir, windowID, "bmp")
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// xdotool prints decimal ids, wmctrl prints hex ones
	raw, err := strconv.ParseUint(windowID, 0, 32)
	if err != nil {
		return "", errors.Wrapf(runner.ErrParse, "window id %q: %v", windowID, err)
	}

	img, err := c.captureWindow(xproto.Window(raw))
	if err != nil {
		return "", err
	}

	if err := ensureDir(c.dir); err != nil {
		return "", err
	}
	if err := writeBMP(path, img); err != nil {
		return "", err
	}
	return path, nil
}

func (c *X11Capturer) captureWindow(win xproto.Window) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.WithComponent("x11-capturer")

	attrs, err := xproto.GetWindowAttributes(c.conn, win).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get window attributes: %w", err)
	}

	// Frame windows are often InputOnly or unmapped; the content is a child
	if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable {
		child, err := c.findCapturableChild(win)
		if err != nil {
			return nil, fmt.Errorf("no capturable window found: %w", err)
		}
		log.Debug().
			Uint32("window_id", uint32(win)).
			Uint32("child_window_id", uint32(child)).
			Msg("Capturing child window")
		win = child
	}

	geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get window geometry: %w", err)
	}

	return c.captureDrawable(win, geom)
}

// findCapturableChild recursively searches for a viewable InputOutput child
func (c *X11Capturer) findCapturableChild(parent xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(c.conn, parent).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query tree: %w", err)
	}

	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(c.conn, child).Reply()
		if err != nil {
			continue
		}

		geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(child)).Reply()
		if err != nil {
			continue
		}

		if attrs.Class == xproto.WindowClassInputOutput && attrs.MapState == xproto.MapStateViewable {
			if geom.Width > 10 && geom.Height > 10 {
				return child, nil
			}
		}

		if grandchild, err := c.findCapturableChild(child); err == nil {
			return grandchild, nil
		}
	}

	return 0, fmt.Errorf("no capturable child found")
}

// captureDrawable reads the window pixels, through a Composite pixmap when
// the extension is available
func (c *X11Capturer) captureDrawable(win xproto.Window, geom *xproto.GetGeometryReply) (*image.RGBA, error) {
	drawable := xproto.Drawable(win)

	if c.compositeEnabled {
		if err := composite.RedirectWindowChecked(c.conn, win, composite.RedirectAutomatic).Check(); err == nil {
			defer composite.UnredirectWindow(c.conn, win, composite.RedirectAutomatic)

			if pixmap, err := xproto.NewPixmapId(c.conn); err == nil {
				if err := composite.NameWindowPixmapChecked(c.conn, win, pixmap).Check(); err == nil {
					drawable = xproto.Drawable(pixmap)
					defer xproto.FreePixmap(c.conn, pixmap)
				}
			}
		}
	}

	reply, err := xproto.GetImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		drawable,
		0, 0,
		geom.Width, geom.Height,
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return convertImageData(reply.Data, int(geom.Width), int(geom.Height), int(c.screen.RootDepth))
}

// convertImageData converts 24/32-bit BGRX pixel data to RGBA
func convertImageData(data []byte, width, height, depth int) (*image.RGBA, error) {
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported root depth %d", depth)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i+3 < len(data) && i < len(img.Pix); i += 4 {
		img.Pix[i] = data[i+2]
		img.Pix[i+1] = data[i+1]
		img.Pix[i+2] = data[i]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}

func writeBMP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(runner.ErrIO, "create %s: %v", path, err)
	}
	if err := bmp.Encode(f, img); err != nil {
		_ = f.Close()
		return errors.Wrapf(runner.ErrIO, "encode %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(runner.ErrIO, "close %s: %v", path, err)
	}
	return nil
}
