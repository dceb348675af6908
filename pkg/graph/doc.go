// Package graph defines the crop recipe graph produced by evaluating a
// recipe. The graph is an immutable DAG of primitives, transforms, boolean
// operations and named outputs that the tessellator turns into meshes.
package graph
