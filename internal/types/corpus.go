package types

// PostMeta carries the entities extracted from a post when it was exported.
type PostMeta struct {
	Hashtags []string `json:"hashtags"`
	Mentions []string `json:"mentions"`
	Emojis   []string `json:"emojis"`
}

// Post is a single historical post of an author.
type Post struct {
	PostID    string    `json:"post_id,omitempty"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp,omitempty"`
	Meta      *PostMeta `json:"meta,omitempty"`
}

// AuthorCorpus groups an author's posts by platform.
type AuthorCorpus struct {
	AuthorID   string            `json:"author_id"`
	Name       string            `json:"name,omitempty"`
	Profession string            `json:"profession,omitempty"`
	Platforms  map[string][]Post `json:"platforms"`
}

// PlatformKeys returns the corpus platforms that have at least one post, in canonical order.
func (c *AuthorCorpus) PlatformKeys() []string {
	keys := make([]string, 0, len(c.Platforms))
	for k, posts := range c.Platforms {
		if len(posts) > 0 {
			keys = append(keys, k)
		}
	}
	return OrderPlatforms(keys)
}

// AllPosts flattens the corpus in canonical platform order.
func (c *AuthorCorpus) AllPosts() []Post {
	var all []Post
	for _, k := range c.PlatformKeys() {
		all = append(all, c.Platforms[k]...)
	}
	return all
}

// TotalPosts returns the number of posts across all platforms.
func (c *AuthorCorpus) TotalPosts() int {
	total := 0
	for _, posts := range c.Platforms {
		total += len(posts)
	}
	return total
}

// Dataset is the corpus file consumed by the profiling tools.
type Dataset struct {
	Version string         `json:"version,omitempty"`
	Authors []AuthorCorpus `json:"authors"`
}
