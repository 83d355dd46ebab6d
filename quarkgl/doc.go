// Package quarkgl provides a minimal, predictable software 3D engine for the carousel.
//
// QuarkGL covers what a textured, inside-viewed sphere needs: meshes with per-face
// materials, image-backed textures with repeat wrapping and linear filtering, a
// perspective camera, and a depth-tested rasterizer. It is not a game engine and does
// not provide a GPU abstraction.
//
// Pipeline (fixed):
//
//	Scene → Texture upload → Transform → Projection → Clipping → Rasterization → Target.
//
// Textures keep their own texel copy of the source image. The copy is refreshed at the
// start of a render only for textures flagged with SetNeedsUpdate, in the same way a
// GPU texture is re-uploaded from its backing canvas.
package quarkgl
