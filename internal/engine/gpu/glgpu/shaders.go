package glgpu

const mainVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aTexCoord;

uniform mat4 uViewProj;
uniform mat4 uModel;
uniform mat4 uLightViewProj;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vTexCoord;
out vec4 vLightSpace;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vNormal = mat3(uModel) * aNormal;
    vTexCoord = aTexCoord;
    vLightSpace = uLightViewProj * world;
    gl_Position = uViewProj * world;
}
`

const mainFragmentShader = `#version 410 core
in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vTexCoord;
in vec4 vLightSpace;

uniform vec3 uEyePos;
uniform vec3 uLightDir;
uniform sampler2D uTexture;
uniform int uUseTexture;
uniform sampler2DShadow uShadowMap;
uniform int uShadowsEnabled;
uniform samplerCube uReflection;
uniform int uReflectionEnabled;

out vec4 FragColor;

float shadowFactor() {
    if (uShadowsEnabled == 0) {
        return 1.0;
    }
    vec3 p = vLightSpace.xyz / vLightSpace.w * 0.5 + 0.5;
    if (p.z > 1.0) {
        return 1.0;
    }
    return mix(0.4, 1.0, texture(uShadowMap, vec3(p.xy, p.z - 0.002)));
}

void main() {
    vec3 n = normalize(vNormal);
    vec3 albedo = uUseTexture != 0 ? texture(uTexture, vTexCoord).rgb : vec3(0.8);
    float diffuse = max(dot(n, normalize(uLightDir)), 0.0) * shadowFactor();
    vec3 color = albedo * (0.25 + 0.75 * diffuse);
    if (uReflectionEnabled != 0) {
        vec3 r = reflect(normalize(vWorldPos - uEyePos), n);
        color = mix(color, texture(uReflection, r).rgb, 0.15);
    }
    FragColor = vec4(color, 1.0);
}
`

const depthVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;

uniform mat4 uViewProj;
uniform mat4 uModel;

void main() {
    gl_Position = uViewProj * uModel * vec4(aPosition, 1.0);
}
`

const depthFragmentShader = `#version 410 core
void main() {}
`
