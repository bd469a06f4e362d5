package window

import (
	"context"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/pkg/errors"
)

// X11Backend answers desktop queries over the X protocol. It serves as the
// DesktopSizer of last resort and as the ToolBackend fallback.
type X11Backend struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	mu     sync.Mutex
}

var (
	_ DesktopSizer = (*X11Backend)(nil)
	_ Fallback     = (*X11Backend)(nil)
)

// NewX11Backend connects to the X server named by $DISPLAY
func NewX11Backend() (*X11Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Backend{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
	}, nil
}

// Close closes the X11 connection
func (b *X11Backend) Close() error {
	b.conn.Close()
	return nil
}

// Name returns the backend name
func (b *X11Backend) Name() string {
	return "x11"
}

// DesktopSize prefers _NET_DESKTOP_GEOMETRY and falls back to the screen size
func (b *X11Backend) DesktopSize(ctx context.Context) ([2]uint32, error) {
	if err := ctx.Err(); err != nil {
		return [2]uint32{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if values, err := b.cardinals(b.root, "_NET_DESKTOP_GEOMETRY"); err == nil && len(values) >= 2 {
		return [2]uint32{values[0], values[1]}, nil
	}

	return [2]uint32{uint32(b.screen.WidthInPixels), uint32(b.screen.HeightInPixels)}, nil
}

// ActiveWindow returns _NET_ACTIVE_WINDOW in decimal, the way xdotool prints it
func (b *X11Backend) ActiveWindow() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.cardinals(b.root, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return "", err
	}
	if len(values) == 0 || values[0] == 0 {
		return "", errors.New("no active window")
	}
	return fmt.Sprintf("%d", values[0]), nil
}

// ListWindows walks _NET_CLIENT_LIST. Ids use the wmctrl hex form.
func (b *X11Backend) ListWindows() ([]Window, error) {
	log := logger.WithComponent("x11-backend")

	b.mu.Lock()
	defer b.mu.Unlock()

	ids, err := b.cardinals(b.root, "_NET_CLIENT_LIST")
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST property: %w", err)
	}

	windows := make([]Window, 0, len(ids))
	for _, id := range ids {
		win := xproto.Window(id)

		geom, err := b.absoluteGeometry(win)
		if err != nil {
			log.Debug().Uint32("winID", id).Err(err).Msg("Skipping window without geometry")
			continue
		}

		windows = append(windows, Window{
			ID:       fmt.Sprintf("0x%08x", id),
			Title:    b.title(win),
			Geometry: geom,
		})
	}

	return windows, nil
}

// absoluteGeometry translates the window origin into root coordinates
func (b *X11Backend) absoluteGeometry(win xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return Geometry{}, err
	}

	pos, err := xproto.TranslateCoordinates(b.conn, win, b.root, 0, 0).Reply()
	if err != nil {
		return Geometry{}, err
	}

	return Geometry{
		X: int32(pos.DstX),
		Y: int32(pos.DstY),
		W: uint32(geom.Width),
		H: uint32(geom.Height),
	}, nil
}

// title reads _NET_WM_NAME, falling back to WM_NAME
func (b *X11Backend) title(win xproto.Window) string {
	for _, name := range []string{"_NET_WM_NAME", "WM_NAME"} {
		atom, err := b.getAtom(name)
		if err != nil {
			continue
		}
		if title, err := b.getProperty(win, atom); err == nil && title != "" {
			return title
		}
	}
	return ""
}

// cardinals reads a 32-bit property as a list of values
func (b *X11Backend) cardinals(win xproto.Window, name string) ([]uint32, error) {
	atom, err := b.getAtom(name)
	if err != nil {
		return nil, err
	}

	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, err
	}
	if reply.ValueLen == 0 {
		return nil, fmt.Errorf("%s is empty", name)
	}

	values := make([]uint32, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		values = append(values, uint32(reply.Value[i])|
			uint32(reply.Value[i+1])<<8|
			uint32(reply.Value[i+2])<<16|
			uint32(reply.Value[i+3])<<24)
	}
	return values, nil
}

// getAtom gets an atom ID by name
func (b *X11Backend) getAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

// getProperty gets a property value as a string
func (b *X11Backend) getProperty(win xproto.Window, atom xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return "", err
	}

	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property")
	}

	return string(reply.Value), nil
}
