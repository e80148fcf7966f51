package mdl

const (
	FILE_VERSION = 0x01000005

	LOD_MAX        = 3
	MESH_STREAMS   = 3
	STREAMS_USED   = 2
	BONE_TABLE_MAX = 64
	ATTRIBUTE_MAX  = 32

	VERTEX_LIMIT      = 0xffff
	INDEX_LIMIT       = 0xffff
	SHAPE_VALUE_LIMIT = 0xffff

	// index runs and buffer region start are aligned to this
	INDEX_ALIGN = 0x10

	NO_BONE_TABLE = 0xffff
)

const (
	FILE_HEADER_SIZE         = 0x44
	MESH_HEADER_SIZE         = 0x38
	STRING_BLOCK_HEADER_SIZE = 0x8
	BONE_TABLE_SIZE          = 0x84
	ELEMENT_ID_SIZE          = 0x20
	LOD_SIZE                 = 0x3c
	MESH_SIZE                = 0x24
	SUBMESH_SIZE             = 0x10
	SHAPE_SIZE               = 0x10
	SHAPE_MESH_SIZE          = 0xc
	SHAPE_VALUE_SIZE         = 0x4
	BOUNDING_BOX_SIZE        = 0x20

	VERTEX_ELEMENT_SIZE      = 0x8
	VERTEX_DECLARATION_SLOTS = 17
	VERTEX_DECLARATION_SIZE  = VERTEX_ELEMENT_SIZE * VERTEX_DECLARATION_SLOTS

	// stream value of declaration terminator
	VERTEX_STREAM_END = 0xff
)
