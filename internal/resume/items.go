package resume

// Item 是分区条目的公共约束：每个条目都有稳定 ID。
type Item interface {
	Experience | Education | SkillCategory | Project | Certification | Achievement | Language | Interest
	ItemID() string
}

// FindItem 按 ID 查找条目。
func FindItem[T Item](items []T, id string) (T, bool) {
	for _, item := range items {
		if item.ItemID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// UpsertItem 按 ID 替换条目；ID 不存在时追加到末尾。返回新切片，不修改入参。
func UpsertItem[T Item](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	replaced := false
	for _, existing := range items {
		if existing.ItemID() == item.ItemID() {
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, item)
	}
	return out
}

// RemoveItem 按 ID 删除条目，ID 不存在时原样返回副本。
func RemoveItem[T Item](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, existing := range items {
		if existing.ItemID() != id {
			out = append(out, existing)
		}
	}
	return out
}

// Clone 深拷贝文档，包括各分区中的字符串切片。
func (r Resume) Clone() Resume {
	out := r
	out.Experience = cloneSlice(r.Experience)
	out.Education = cloneSlice(r.Education)
	out.Skills = cloneSkills(r.Skills)
	out.Projects = cloneProjects(r.Projects)
	out.Certifications = cloneSlice(r.Certifications)
	out.Achievements = cloneSlice(r.Achievements)
	out.Languages = cloneSlice(r.Languages)
	out.Interests = cloneSlice(r.Interests)
	out.SectionOrder = cloneSlice(r.SectionOrder)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneSkills(in []SkillCategory) []SkillCategory {
	out := cloneSlice(in)
	for i := range out {
		out[i].Skills = cloneSlice(out[i].Skills)
	}
	return out
}

func cloneProjects(in []Project) []Project {
	out := cloneSlice(in)
	for i := range out {
		out[i].Technologies = cloneSlice(out[i].Technologies)
	}
	return out
}
