package services

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jung-kurt/gofpdf"
	"github.com/pmxy/gallery/internal/config"
	"github.com/pmxy/gallery/internal/models"
	qrcode "github.com/skip2/go-qrcode"
	"k8s.io/klog/v2"
)

type QRService struct {
	cfg    *config.Config
	assets *AssetService
}

func NewQRService(cfg *config.Config, assets *AssetService) *QRService {
	return &QRService{cfg: cfg, assets: assets}
}

// GalleryURL is the front-end page of a gallery.
func (s *QRService) GalleryURL(name string) string {
	return fmt.Sprintf("%s/gallery/%s", s.cfg.FrontendURL, url.PathEscape(name))
}

// GenerateSharePDF generates an A4 sheet with the gallery name, its cover
// thumbnail when available and a QR code linking to the gallery page.
func (s *QRService) GenerateSharePDF(g *models.Gallery) ([]byte, error) {
	galleryURL := s.GalleryURL(g.Name)

	png, err := qrcode.Encode(galleryURL, qrcode.Medium, 512)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, tr(g.Name))
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, fmt.Sprintf("%d images\n%s", len(g.Images), galleryURL), "", "L", false)

	y := pdf.GetY() + 6
	if g.Image != nil {
		if h, ok := s.placeCover(pdf, g.Image.Name, y); ok {
			y += h + 6
		}
	}

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", opt, bytes.NewReader(png))

	// A4 is 210mm wide, QR is 80mm
	x := (210.0 - 80.0) / 2.0
	pdf.ImageOptions("qr", x, y, 80, 80, false, opt, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// placeCover draws the cover thumbnail centered at y and returns its height.
// gofpdf reads JPEG and PNG only; other formats are skipped.
func (s *QRService) placeCover(pdf *gofpdf.Fpdf, name string, y float64) (float64, bool) {
	f, _, err := s.assets.Open(AssetThumbnail, name)
	if err != nil {
		klog.Warningf("share sheet: cover thumbnail %s: %v", name, err)
		return 0, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		klog.Warningf("share sheet: read cover %s: %v", name, err)
		return 0, false
	}

	var imageType string
	switch mimetype.Detect(data).String() {
	case "image/jpeg":
		imageType = "JPG"
	case "image/png":
		imageType = "PNG"
	default:
		return 0, false
	}

	opt := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader("cover", opt, bytes.NewReader(data))
	if !pdf.Ok() || info == nil || info.Width() == 0 {
		klog.Warningf("share sheet: cover %s not usable: %v", name, pdf.Error())
		pdf.ClearError()
		return 0, false
	}

	const w = 100.0
	h := w * info.Height() / info.Width()
	pdf.ImageOptions("cover", (210.0-w)/2.0, y, w, h, false, opt, 0, "")
	return h, true
}
