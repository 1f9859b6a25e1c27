package models

// GalleryImage is one uploaded image. Name is the stored filename (shared by
// the original and its thumbnail), Title the display name derived from the
// uploaded filename.
type GalleryImage struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Gallery is a named, ordered collection of images with an optional cover.
type Gallery struct {
	Name   string         `json:"name"`
	Image  *GalleryImage  `json:"image,omitempty"`
	Images []GalleryImage `json:"images"`
}

// GallerySummary is the list projection of a gallery
type GallerySummary struct {
	Name  string        `json:"name"`
	Image *GalleryImage `json:"image,omitempty"`
}

// Document is the complete persisted state.
type Document struct {
	Galleries []Gallery `json:"galleries"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Galleries: []Gallery{}}
}

// Normalize replaces nil slices so the document always serializes with
// arrays instead of null.
func (d *Document) Normalize() {
	if d.Galleries == nil {
		d.Galleries = []Gallery{}
	}
	for i := range d.Galleries {
		if d.Galleries[i].Images == nil {
			d.Galleries[i].Images = []GalleryImage{}
		}
	}
}

// Find returns a pointer into the document for the named gallery, or nil.
func (d *Document) Find(name string) *Gallery {
	for i := range d.Galleries {
		if d.Galleries[i].Name == name {
			return &d.Galleries[i]
		}
	}
	return nil
}

// Remove deletes the named gallery and reports whether it existed.
func (d *Document) Remove(name string) bool {
	for i := range d.Galleries {
		if d.Galleries[i].Name == name {
			d.Galleries = append(d.Galleries[:i], d.Galleries[i+1:]...)
			return true
		}
	}
	return false
}

// Summaries projects every gallery to its name and cover, in document order.
func (d *Document) Summaries() []GallerySummary {
	out := make([]GallerySummary, 0, len(d.Galleries))
	for _, g := range d.Galleries {
		out = append(out, GallerySummary{Name: g.Name, Image: g.Image})
	}
	return out
}

// AddImage appends img and makes it the cover when it is the only image.
func (g *Gallery) AddImage(img GalleryImage) {
	g.Images = append(g.Images, img)
	if len(g.Images) == 1 {
		cover := img
		g.Image = &cover
	}
}

// RemoveImage drops the image with the given name, if present. When the
// removed image was the cover, the cover moves to the new first image or is
// cleared for an empty gallery.
func (g *Gallery) RemoveImage(name string) bool {
	for i := range g.Images {
		if g.Images[i].Name != name {
			continue
		}
		g.Images = append(g.Images[:i], g.Images[i+1:]...)
		if g.Image != nil && g.Image.Name == name {
			if len(g.Images) > 0 {
				cover := g.Images[0]
				g.Image = &cover
			} else {
				g.Image = nil
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy safe to hand out after the store lock is released.
func (g Gallery) Clone() Gallery {
	out := Gallery{Name: g.Name, Images: make([]GalleryImage, len(g.Images))}
	copy(out.Images, g.Images)
	if g.Image != nil {
		cover := *g.Image
		out.Image = &cover
	}
	return out
}
