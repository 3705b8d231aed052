//go:build cuda

package native

/*
#cgo CFLAGS: -I${SRCDIR}/../../../../kernels/include
#cgo LDFLAGS: -L${SRCDIR}/../../../../kernels/build -lqubokernels -lcudart -lstdc++

#include <stddef.h>
#include <stdint.h>

// Minimal CUDA runtime forward declarations to avoid requiring headers at compile time.
// Linker will still require libcudart when building with the cuda tag.
typedef void* cudaStream_t;
typedef int cudaError_t;
typedef int32_t qubo_t;

extern const char* cudaGetErrorString(cudaError_t err);
extern cudaError_t cudaGetDeviceCount(int* count);
extern cudaError_t cudaSetDevice(int device);
extern cudaError_t cudaDeviceGetAttribute(int* value, int attr, int device);
extern cudaError_t cudaMemGetInfo(size_t* free, size_t* total);
extern cudaError_t cudaStreamCreate(cudaStream_t* stream);
extern cudaError_t cudaStreamDestroy(cudaStream_t stream);
extern cudaError_t cudaStreamSynchronize(cudaStream_t stream);
extern cudaError_t cudaMalloc(void** ptr, size_t size);
extern cudaError_t cudaFree(void* ptr);
extern cudaError_t cudaMemcpy(void* dst, const void* src, size_t size, int kind);

extern cudaError_t qubo_launch_energy(const qubo_t* q, const qubo_t* x, qubo_t* out, qubo_t* flags, int n, int batch, cudaStream_t stream);
extern cudaError_t qubo_launch_flip_deltas(const qubo_t* q, const qubo_t* x, qubo_t* out, qubo_t* flags, int n, int batch, cudaStream_t stream);
extern cudaError_t qubo_launch_fill(qubo_t* dst, qubo_t value, int count, cudaStream_t stream);

#define QUBO_CUDA_MEMCPY_HOST_TO_DEVICE 1
#define QUBO_CUDA_MEMCPY_DEVICE_TO_HOST 2
#define QUBO_CUDA_ATTR_CC_MAJOR 75
#define QUBO_CUDA_ATTR_CC_MINOR 76

static const char* quboCudaGetErrorString(int err) {
	return cudaGetErrorString((cudaError_t)err);
}

static int quboCudaGetDeviceCount(int* out) {
	return (int)cudaGetDeviceCount(out);
}

static int quboCudaSetDevice(int device) {
	return (int)cudaSetDevice(device);
}

static int quboCudaComputeCapability(int device, int* major, int* minor) {
	cudaError_t err = cudaDeviceGetAttribute(major, QUBO_CUDA_ATTR_CC_MAJOR, device);
	if (err != 0) {
		return (int)err;
	}
	return (int)cudaDeviceGetAttribute(minor, QUBO_CUDA_ATTR_CC_MINOR, device);
}

static int quboCudaMemTotal(unsigned long long* total) {
	size_t f = 0, t = 0;
	cudaError_t err = cudaMemGetInfo(&f, &t);
	*total = (unsigned long long)t;
	return (int)err;
}

static int quboCudaStreamCreate(cudaStream_t* out) {
	return (int)cudaStreamCreate(out);
}

static int quboCudaStreamDestroy(cudaStream_t stream) {
	return (int)cudaStreamDestroy(stream);
}

static int quboCudaStreamSynchronize(cudaStream_t stream) {
	return (int)cudaStreamSynchronize(stream);
}

static int quboCudaMalloc(uintptr_t* out, unsigned long long size) {
	void* p = NULL;
	cudaError_t err = cudaMalloc(&p, (size_t)size);
	*out = (uintptr_t)p;
	return (int)err;
}

static int quboCudaFree(uintptr_t ptr) {
	return (int)cudaFree((void*)ptr);
}

static int quboCudaMemcpyHtoD(uintptr_t dst, const void* src, unsigned long long size) {
	return (int)cudaMemcpy((void*)dst, src, (size_t)size, QUBO_CUDA_MEMCPY_HOST_TO_DEVICE);
}

static int quboCudaMemcpyDtoH(void* dst, uintptr_t src, unsigned long long size) {
	return (int)cudaMemcpy(dst, (const void*)src, (size_t)size, QUBO_CUDA_MEMCPY_DEVICE_TO_HOST);
}

static int quboLaunchEnergy(uintptr_t q, uintptr_t x, uintptr_t out, uintptr_t flags, int n, int batch, cudaStream_t stream) {
	return (int)qubo_launch_energy((const qubo_t*)q, (const qubo_t*)x, (qubo_t*)out, (qubo_t*)flags, n, batch, stream);
}

static int quboLaunchFlipDeltas(uintptr_t q, uintptr_t x, uintptr_t out, uintptr_t flags, int n, int batch, cudaStream_t stream) {
	return (int)qubo_launch_flip_deltas((const qubo_t*)q, (const qubo_t*)x, (qubo_t*)out, (qubo_t*)flags, n, batch, stream);
}

static int quboLaunchFill(uintptr_t dst, qubo_t value, int count, cudaStream_t stream) {
	return (int)qubo_launch_fill((qubo_t*)dst, value, count, stream);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Code is a raw cudaError_t. Zero is cudaSuccess.
type Code int32

// String returns the runtime's description of c.
func (c Code) String() string {
	return C.GoString(C.quboCudaGetErrorString(C.int(c)))
}

type Stream struct {
	ptr C.cudaStream_t
}

func DeviceCount() (int, Code) {
	var count C.int
	code := Code(C.quboCudaGetDeviceCount(&count))
	return int(count), code
}

func SetDevice(ordinal int) Code {
	return Code(C.quboCudaSetDevice(C.int(ordinal)))
}

// ComputeCapability returns the "major.minor" compute capability of ordinal.
func ComputeCapability(ordinal int) (string, Code) {
	var major, minor C.int
	if code := Code(C.quboCudaComputeCapability(C.int(ordinal), &major, &minor)); code != 0 {
		return "", code
	}
	return fmt.Sprintf("%d.%d", int(major), int(minor)), 0
}

// MemoryTotal reports the global memory of the current device in bytes.
func MemoryTotal() (int64, Code) {
	var total C.ulonglong
	code := Code(C.quboCudaMemTotal(&total))
	return int64(total), code
}

func NewStream() (Stream, Code) {
	var stream C.cudaStream_t
	if code := Code(C.quboCudaStreamCreate(&stream)); code != 0 {
		return Stream{}, code
	}
	return Stream{ptr: stream}, 0
}

func (s Stream) Destroy() Code {
	if s.ptr == nil {
		return 0
	}
	return Code(C.quboCudaStreamDestroy(s.ptr))
}

func (s Stream) Synchronize() Code {
	if s.ptr == nil {
		return 0
	}
	return Code(C.quboCudaStreamSynchronize(s.ptr))
}

// Malloc allocates count int32 values of device memory.
func Malloc(count int) (uintptr, Code) {
	var ptr C.uintptr_t
	code := Code(C.quboCudaMalloc(&ptr, C.ulonglong(count*4)))
	return uintptr(ptr), code
}

func Free(ptr uintptr) Code {
	return Code(C.quboCudaFree(C.uintptr_t(ptr)))
}

func MemcpyHtoD(dst uintptr, src []int32) Code {
	if len(src) == 0 {
		return 0
	}
	return Code(C.quboCudaMemcpyHtoD(C.uintptr_t(dst), unsafe.Pointer(&src[0]), C.ulonglong(len(src)*4)))
}

func MemcpyDtoH(dst []int32, src uintptr) Code {
	if len(dst) == 0 {
		return 0
	}
	return Code(C.quboCudaMemcpyDtoH(unsafe.Pointer(&dst[0]), C.uintptr_t(src), C.ulonglong(len(dst)*4)))
}

// Fill writes value into the first count int32 slots of dst on stream.
func Fill(dst uintptr, value int32, count int, stream Stream) Code {
	return Code(C.quboLaunchFill(C.uintptr_t(dst), C.qubo_t(value), C.int(count), stream.ptr))
}

// LaunchEnergy enqueues the energy kernel. Launch errors are returned
// immediately; execution errors surface on the next synchronization.
func LaunchEnergy(q, x, out, flags uintptr, n, batch int, stream Stream) Code {
	return Code(C.quboLaunchEnergy(C.uintptr_t(q), C.uintptr_t(x), C.uintptr_t(out), C.uintptr_t(flags), C.int(n), C.int(batch), stream.ptr))
}

func LaunchFlipDeltas(q, x, out, flags uintptr, n, batch int, stream Stream) Code {
	return Code(C.quboLaunchFlipDeltas(C.uintptr_t(q), C.uintptr_t(x), C.uintptr_t(out), C.uintptr_t(flags), C.int(n), C.int(batch), stream.ptr))
}
