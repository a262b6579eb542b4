package dataset

import "github.com/kilianp07/podplan/core/model"

// Point is a planar coordinate pair as found in the node table.
type Point struct {
	X, Y float64
}

// Coordinates maps node ids to their X/Y position. It is only used to
// decorate exported results.
type Coordinates map[model.NodeID]Point

// LoadCoordinates reads the X/Y columns of a node table. Rows without
// numeric coordinates are left out.
func LoadCoordinates(path, idColumn string) (Coordinates, error) {
	l := &Loader{IDColumn: idColumn}
	nodes, err := l.readNodes(path)
	if err != nil {
		return nil, err
	}
	out := make(Coordinates, len(nodes))
	for _, n := range nodes {
		if n.hasXY {
			out[model.NodeID(n.id)] = Point{X: n.x, Y: n.y}
		}
	}
	return out, nil
}

// Lookup returns the coordinates of a node.
func (c Coordinates) Lookup(id int) (Point, bool) {
	p, ok := c[model.NodeID(id)]
	return p, ok
}
