package host

// Vec3 is a 3-component float vector, used for location/rotation/scale.
type Vec3 [3]float64

// Object is a single scene object in the simulated document.
type Object struct {
	Name     string
	Type     string
	Location Vec3
	Rotation Vec3
	Scale    Vec3
	Visible  bool
	Materials []string
	// Mesh stats, only meaningful when Type == "MESH".
	Vertices int
	Edges    int
	Faces    int
	Polygons int
}

// Material is a scene material.
type Material struct {
	Name string
}

// Document is the simulated Host's scripting-visible document: the
// external collaborator's scene graph, reduced to what the router's
// handlers need to read and mutate. It is only ever safe to touch from
// the host worker goroutine (see pkg/dispatch).
type Document struct {
	Name      string
	Objects   map[string]*Object
	Materials map[string]*Material
	order     []string // insertion order, for get_scene_info's "up to 10"
}

// NewDocument returns an empty document, analogous to a freshly opened
// Blender file.
func NewDocument(name string) *Document {
	return &Document{
		Name:      name,
		Objects:   make(map[string]*Object),
		Materials: make(map[string]*Material),
	}
}

// AddCube creates a new mesh object named name (or an auto-generated name
// if empty) at the given location, returning the created object. This is
// the primitive the restricted execute_code interpreter calls via
// host.add_cube(...).
func (d *Document) AddCube(name string, location Vec3) *Object {
	if name == "" {
		name = d.autoName("Cube")
	}
	obj := &Object{
		Name:     name,
		Type:     "MESH",
		Location: location,
		Scale:    Vec3{1, 1, 1},
		Visible:  true,
		Vertices: 8,
		Edges:    12,
		Faces:    6,
		Polygons: 6,
	}
	d.Objects[name] = obj
	d.order = append(d.order, name)
	return obj
}

func (d *Document) autoName(prefix string) string {
	n := 0
	for {
		candidate := prefix
		if n > 0 {
			candidate = prefixWithSuffix(prefix, n)
		}
		if _, exists := d.Objects[candidate]; !exists {
			return candidate
		}
		n++
	}
}

func prefixWithSuffix(prefix string, n int) string {
	return prefix + "." + pad3(n)
}

func pad3(n int) string {
	digits := []byte{'0', '0', '0'}
	s := []byte{}
	for n > 0 {
		s = append([]byte{byte('0' + n%10)}, s...)
		n /= 10
	}
	if len(s) >= 3 {
		return string(s)
	}
	return string(digits[:3-len(s)]) + string(s)
}

// ObjectCount returns the number of objects in the document.
func (d *Document) ObjectCount() int {
	return len(d.Objects)
}

// MaterialCount returns the number of materials in the document.
func (d *Document) MaterialCount() int {
	return len(d.Materials)
}

// OrderedObjects returns up to n objects in insertion order, for
// get_scene_info's capped object listing.
func (d *Document) OrderedObjects(n int) []*Object {
	limit := n
	if len(d.order) < limit {
		limit = len(d.order)
	}
	result := make([]*Object, 0, limit)
	for _, name := range d.order {
		if len(result) >= n {
			break
		}
		if obj, ok := d.Objects[name]; ok {
			result = append(result, obj)
		}
	}
	return result
}
