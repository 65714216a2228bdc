package schema

// Resource-manager memory never exceeds this ceiling, in MB.
const MaxResourceManagerMB = 4096

// Sizing holds the memory allocations derived from the host.
type Sizing struct {
	TotalMB           int // physical memory of the host
	ResourceManagerMB int // memory YARN may hand out on this node
	ContainerMB       int // memory of a single map, reduce or AM container
}

// ComputeSizing derives YARN memory from total host memory: the node gets
// 70% of it capped at 4096 MB, and each container gets half of that.
// Both divisions truncate.
func ComputeSizing(totalMB int) Sizing {
	rm := totalMB * 70 / 100
	if rm > MaxResourceManagerMB {
		rm = MaxResourceManagerMB
	}
	if rm < 0 {
		rm = 0
	}
	return Sizing{
		TotalMB:           totalMB,
		ResourceManagerMB: rm,
		ContainerMB:       rm / 2,
	}
}

// ApplySizing writes the allocations into the YARN and MapReduce configs.
func (s Sizing) ApplySizing(h *HadoopConfig) {
	if h == nil {
		return
	}
	if h.YarnSite != nil {
		h.YarnSite.MemoryMB = s.ResourceManagerMB
		h.YarnSite.MaxAllocationMB = s.ResourceManagerMB
		if h.YarnSite.MinAllocationMB > s.ContainerMB {
			h.YarnSite.MinAllocationMB = s.ContainerMB
		}
	}
	if h.MapredSite != nil {
		h.MapredSite.MapMemoryMB = s.ContainerMB
		h.MapredSite.ReduceMemoryMB = s.ContainerMB
		h.MapredSite.AMMemoryMB = s.ContainerMB
	}
}
