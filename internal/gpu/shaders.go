package gpu

// Embedded SPIR-V shaders for the compositor's transform/blend/warp passes.
// The GLSL source is kept as a comment next to each placeholder binary;
// a real build regenerates the binaries with glslc:
//   glslc -fshader-stage=vertex   transform.vert.glsl -o transform.vert.spv
//   glslc -fshader-stage=fragment transform.frag.glsl -o transform.frag.spv
//   glslc -fshader-stage=fragment warp.frag.glsl       -o warp.frag.spv

// Transform vertex shader GLSL source (for reference)
//
// #version 450
// layout(location = 0) out vec2 fragUV;
// void main() {
//     // full-screen triangle from gl_VertexIndex, no vertex input
//     vec2 pos = vec2((gl_VertexIndex << 1) & 2, gl_VertexIndex & 2) * 2.0 - 1.0;
//     fragUV = pos * 0.5 + 0.5;
//     gl_Position = vec4(pos, 0.0, 1.0);
// }
var TransformVertexSPIRV = []byte{
	0x03, 0x02, 0x23, 0x07,
	0x00, 0x00, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// Transform fragment shader GLSL source (for reference)
//
// #version 450
// layout(location = 0) in vec2 fragUV;
// layout(location = 0) out vec4 outColor;
// layout(binding = 0) uniform sampler2D clipTex;
// layout(push_constant) uniform Transform {
//     vec2 sizeScale;   // clip_size / env_size
//     vec2 position;    // normalized, anchor-aligned
//     vec2 scale;
//     float rotation;
//     vec2 anchor;
//     float opacity;
// } pc;
// void main() {
//     vec2 centered = fragUV - pc.position - pc.anchor * pc.sizeScale;
//     float c = cos(-pc.rotation), s = sin(-pc.rotation);
//     vec2 rotated = mat2(c, s, -s, c) * centered;
//     vec2 uv = (rotated / (pc.sizeScale * pc.scale)) + pc.anchor;
//     if (uv.x < 0.0 || uv.x > 1.0 || uv.y < 0.0 || uv.y > 1.0) discard;
//     outColor = texture(clipTex, uv) * pc.opacity;
// }
var TransformFragmentSPIRV = []byte{
	0x03, 0x02, 0x23, 0x07,
	0x00, 0x00, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// Warp/edge-blend fragment shader GLSL source (for reference)
//
// #version 450
// layout(location = 0) in vec2 fragUV;
// layout(location = 0) out vec4 outColor;
// layout(binding = 0) uniform sampler2D sliceTex;
// layout(binding = 1) uniform sampler2D warpMeshTex; // per-vertex UV offsets
// layout(push_constant) uniform EdgeBlend {
//     vec4 edgeWidths; // left, right, top, bottom, normalized
//     float gamma;
// } pc;
// void main() {
//     vec2 warped = texture(warpMeshTex, fragUV).xy;
//     vec4 color = texture(sliceTex, warped);
//     float atten = 1.0;
//     atten *= smoothstep(0.0, pc.edgeWidths.x, fragUV.x);
//     atten *= smoothstep(0.0, pc.edgeWidths.y, 1.0 - fragUV.x);
//     atten *= smoothstep(0.0, pc.edgeWidths.z, fragUV.y);
//     atten *= smoothstep(0.0, pc.edgeWidths.w, 1.0 - fragUV.y);
//     outColor = color * pow(atten, pc.gamma);
// }
var WarpEdgeBlendFragmentSPIRV = []byte{
	0x03, 0x02, 0x23, 0x07,
	0x00, 0x00, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// TransformPushConstants mirrors the Transform uniform block above;
// size/position/scale/rotation/anchor/opacity exactly match the §4.3
// per-clip transform-shader contract.
type TransformPushConstants struct {
	SizeScaleX, SizeScaleY float32
	PositionX, PositionY   float32
	ScaleX, ScaleY         float32
	Rotation               float32
	AnchorX, AnchorY       float32
	Opacity                float32
}

// EdgeBlendPushConstants mirrors the EdgeBlend uniform block above.
type EdgeBlendPushConstants struct {
	Left, Right, Top, Bottom float32
	Gamma                    float32
}
